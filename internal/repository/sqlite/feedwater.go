package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

// AddFeedWater writes a feed row and/or a water row for the entry. Zero quantities are skipped.
func (s *Store) AddFeedWater(ctx context.Context, e models.FeedWaterEntry) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return insertFeedWater(ctx, tx, e)
	})
	if err != nil {
		return fmt.Errorf("insert feed/water %s %s: %w", e.BatchID, e.Date, err)
	}
	return nil
}

func insertFeedWater(ctx context.Context, tx *sql.Tx, e models.FeedWaterEntry) error {
	if e.FeedKg > 0 {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO feed_logs (batch_id, date, quantity_kg) VALUES (?, ?, ?)",
			e.BatchID, e.Date, e.FeedKg,
		); err != nil {
			return fmt.Errorf("insert feed log: %w", err)
		}
	}
	if e.WaterL > 0 {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO water_logs (batch_id, date, quantity_l) VALUES (?, ?, ?)",
			e.BatchID, e.Date, e.WaterL,
		); err != nil {
			return fmt.Errorf("insert water log: %w", err)
		}
	}
	return nil
}

// ListFeedWater returns one entry per (batch, date) pair present in either log, newest first.
// An empty batchID lists every batch.
func (s *Store) ListFeedWater(ctx context.Context, batchID string) ([]models.FeedWaterEntry, error) {
	const query = `
		SELECT k.batch_id, k.date,
			IFNULL((SELECT SUM(f.quantity_kg) FROM feed_logs f WHERE f.batch_id = k.batch_id AND f.date = k.date), 0),
			IFNULL((SELECT SUM(w.quantity_l) FROM water_logs w WHERE w.batch_id = k.batch_id AND w.date = k.date), 0)
		FROM (
			SELECT batch_id, date FROM feed_logs
			UNION
			SELECT batch_id, date FROM water_logs
		) k
		WHERE ? = '' OR k.batch_id = ?
		ORDER BY k.date DESC, k.batch_id`

	var out []models.FeedWaterEntry
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, batchID, batchID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e models.FeedWaterEntry
			if err := rows.Scan(&e.BatchID, &e.Date, &e.FeedKg, &e.WaterL); err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list feed/water: %w", err)
	}
	return out, nil
}

// ReplaceFeedWater deletes every row of the old (batch, date) pair and writes the new entry.
func (s *Store) ReplaceFeedWater(ctx context.Context, oldBatchID string, oldDate models.Date, e models.FeedWaterEntry) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteFeedWater(ctx, tx, oldBatchID, oldDate); err != nil {
			return err
		}
		return insertFeedWater(ctx, tx, e)
	})
	if err != nil {
		return fmt.Errorf("replace feed/water %s %s: %w", oldBatchID, oldDate, err)
	}
	return nil
}

// DeleteFeedWater removes the feed and water rows of a (batch, date) pair.
func (s *Store) DeleteFeedWater(ctx context.Context, batchID string, date models.Date) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return deleteFeedWater(ctx, tx, batchID, date)
	})
	if err != nil {
		return fmt.Errorf("delete feed/water %s %s: %w", batchID, date, err)
	}
	return nil
}

func deleteFeedWater(ctx context.Context, tx *sql.Tx, batchID string, date models.Date) error {
	var removed int64
	for _, table := range []string{"feed_logs", "water_logs"} {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE batch_id = ? AND date = ?", batchID, date)
		if err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		removed += n
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}
