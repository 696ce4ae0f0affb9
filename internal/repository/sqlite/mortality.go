package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

func (s *Store) AddMortality(ctx context.Context, m models.MortalityRecord) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			"INSERT INTO mortality (batch_id, date, count, reason) VALUES (?, ?, ?, ?)",
			m.BatchID, m.Date, m.Count, m.Reason,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert mortality %s: %w", m.BatchID, err)
	}
	return nil
}

// ListMortality returns records newest first, optionally for one batch.
func (s *Store) ListMortality(ctx context.Context, batchID string) ([]models.MortalityRecord, error) {
	var out []models.MortalityRecord
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT batch_id, date, IFNULL(count, 0), IFNULL(reason, '') FROM mortality
			WHERE ? = '' OR batch_id = ? ORDER BY date DESC, id DESC`,
			batchID, batchID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m models.MortalityRecord
			if err := rows.Scan(&m.BatchID, &m.Date, &m.Count, &m.Reason); err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list mortality: %w", err)
	}
	return out, nil
}

// UpdateMortality rewrites every row equal to old. Identical rows are all rewritten.
func (s *Store) UpdateMortality(ctx context.Context, old, updated models.MortalityRecord) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			`UPDATE mortality SET batch_id = ?, date = ?, count = ?, reason = ?
			WHERE batch_id = ? AND date = ? AND count = ? AND IFNULL(reason, '') = ?`,
			updated.BatchID, updated.Date, updated.Count, updated.Reason,
			old.BatchID, old.Date, old.Count, old.Reason,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("update mortality %s: %w", old.BatchID, err)
	}
	return nil
}

// DeleteMortality removes every row equal to m.
func (s *Store) DeleteMortality(ctx context.Context, m models.MortalityRecord) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"DELETE FROM mortality WHERE batch_id = ? AND date = ? AND count = ? AND IFNULL(reason, '') = ?",
			m.BatchID, m.Date, m.Count, m.Reason,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("delete mortality %s: %w", m.BatchID, err)
	}
	return nil
}
