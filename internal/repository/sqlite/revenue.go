package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

func (s *Store) AddRevenue(ctx context.Context, r models.Revenue) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			"INSERT INTO revenue (date, batch_id, amount) VALUES (?, ?, ?)",
			r.Date, r.BatchID, r.Amount,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert revenue %s: %w", r.BatchID, err)
	}
	return nil
}

// ListRevenue returns income rows newest first, optionally for one batch.
func (s *Store) ListRevenue(ctx context.Context, batchID string) ([]models.Revenue, error) {
	var out []models.Revenue
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT date, IFNULL(batch_id, ''), IFNULL(amount, 0) FROM revenue
			WHERE ? = '' OR batch_id = ? ORDER BY date DESC, id DESC`,
			batchID, batchID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r models.Revenue
			if err := rows.Scan(&r.Date, &r.BatchID, &r.Amount); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list revenue: %w", err)
	}
	return out, nil
}

// DeleteRevenue removes every row equal to r.
func (s *Store) DeleteRevenue(ctx context.Context, r models.Revenue) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"DELETE FROM revenue WHERE date = ? AND batch_id = ? AND amount = ?",
			r.Date, r.BatchID, r.Amount,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("delete revenue %s: %w", r.BatchID, err)
	}
	return nil
}
