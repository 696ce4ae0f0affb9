package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

const batchColumns = "batch_id, IFNULL(num_chicks, 0), IFNULL(breed, ''), date_in, expected_out, IFNULL(mortality_rate, 0)"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(row rowScanner) (models.Batch, error) {
	var b models.Batch
	err := row.Scan(&b.ID, &b.NumChicks, &b.Breed, &b.DateIn, &b.ExpectedOut, &b.MortalityRate)
	return b, err
}

func (s *Store) CreateBatch(ctx context.Context, b models.Batch) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO batches (batch_id, num_chicks, breed, date_in, expected_out, mortality_rate) VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID, b.NumChicks, b.Breed, b.DateIn, b.ExpectedOut, b.MortalityRate,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert batch %s: %w", b.ID, err)
	}
	return nil
}

func (s *Store) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	var b models.Batch
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		b, err = scanBatch(conn.QueryRowContext(ctx, "SELECT "+batchColumns+" FROM batches WHERE batch_id = ?", id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Batch{}, fmt.Errorf("get batch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Batch{}, fmt.Errorf("get batch %s: %w", id, err)
	}
	return b, nil
}

func (s *Store) BatchExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM batches WHERE batch_id = ?", id).Scan(&n)
	})
	if err != nil {
		return false, fmt.Errorf("check batch %s: %w", id, err)
	}
	return n > 0, nil
}

// ListBatches returns every batch, newest placement first.
func (s *Store) ListBatches(ctx context.Context) ([]models.Batch, error) {
	var out []models.Batch
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, "SELECT "+batchColumns+" FROM batches ORDER BY date_in DESC, batch_id")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBatch(rows)
			if err != nil {
				return err
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

// BatchIDs returns the ids of every batch in id order.
func (s *Store) BatchIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, "SELECT batch_id FROM batches ORDER BY batch_id")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list batch ids: %w", err)
	}
	return ids, nil
}

// UpdateBatch rewrites every column of the batch with the same id.
func (s *Store) UpdateBatch(ctx context.Context, b models.Batch) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			`UPDATE batches SET num_chicks = ?, breed = ?, date_in = ?, expected_out = ?, mortality_rate = ? WHERE batch_id = ?`,
			b.NumChicks, b.Breed, b.DateIn, b.ExpectedOut, b.MortalityRate, b.ID,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("update batch %s: %w", b.ID, err)
	}
	return nil
}

var batchDependents = []string{"feed_logs", "water_logs", "revenue", "mortality", "vaccinations"}

// RenameBatch rewrites the batch under a new id and moves every dependent row with it, in one
// transaction.
func (s *Store) RenameBatch(ctx context.Context, oldID string, b models.Batch) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE batches SET batch_id = ?, num_chicks = ?, breed = ?, date_in = ?, expected_out = ?, mortality_rate = ? WHERE batch_id = ?`,
			b.ID, b.NumChicks, b.Breed, b.DateIn, b.ExpectedOut, b.MortalityRate, oldID,
		)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		for _, table := range batchDependents {
			if _, err := tx.ExecContext(ctx, "UPDATE "+table+" SET batch_id = ? WHERE batch_id = ?", b.ID, oldID); err != nil {
				return fmt.Errorf("move %s rows: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rename batch %s to %s: %w", oldID, b.ID, err)
	}
	return nil
}

// DeleteBatch removes the batch row only. Dependent rows keep the old id.
func (s *Store) DeleteBatch(ctx context.Context, id string) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, "DELETE FROM batches WHERE batch_id = ?", id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("delete batch %s: %w", id, err)
	}
	return nil
}
