package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

// RecentMortality returns batches with at least one death dated on or after since.
func (s *Store) RecentMortality(ctx context.Context, since models.Date) ([]models.BatchMortality, error) {
	var out []models.BatchMortality
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT b.batch_id, IFNULL(b.num_chicks, 0), IFNULL(SUM(m.count), 0) AS deaths
			FROM batches b
			LEFT JOIN mortality m ON b.batch_id = m.batch_id AND m.date >= ?
			GROUP BY b.batch_id, b.num_chicks
			HAVING deaths > 0
			ORDER BY b.batch_id`,
			since,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var bm models.BatchMortality
			if err := rows.Scan(&bm.BatchID, &bm.NumChicks, &bm.Deaths); err != nil {
				return err
			}
			out = append(out, bm)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("recent mortality: %w", err)
	}
	return out, nil
}

// FeedSince is the farm-wide feed logged on or after since.
func (s *Store) FeedSince(ctx context.Context, since models.Date) (float64, error) {
	return s.sumSince(ctx, "SELECT IFNULL(SUM(quantity_kg), 0) FROM feed_logs WHERE date >= ?", since)
}

// WaterSince is the farm-wide water logged on or after since.
func (s *Store) WaterSince(ctx context.Context, since models.Date) (float64, error) {
	return s.sumSince(ctx, "SELECT IFNULL(SUM(quantity_l), 0) FROM water_logs WHERE date >= ?", since)
}

func (s *Store) sumSince(ctx context.Context, query string, since models.Date) (float64, error) {
	var total float64
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, query, since).Scan(&total)
	})
	if err != nil {
		return 0, fmt.Errorf("sum since %s: %w", since, err)
	}
	return total, nil
}

// VaccinationsDue lists scheduled vaccinations dated within [from, to], soonest first.
func (s *Store) VaccinationsDue(ctx context.Context, from, to models.Date) ([]models.VaccinationRecord, error) {
	return s.queryVaccinations(ctx,
		`SELECT batch_id, date, IFNULL(vaccine, ''), IFNULL(status, '') FROM vaccinations
		WHERE status = ? AND date BETWEEN ? AND ? ORDER BY date, batch_id`,
		models.VaccinationScheduled, from, to,
	)
}

// BatchesEnding lists batches expected out within [from, to].
func (s *Store) BatchesEnding(ctx context.Context, from, to models.Date) ([]models.Batch, error) {
	var out []models.Batch
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			"SELECT "+batchColumns+" FROM batches WHERE expected_out BETWEEN ? AND ? ORDER BY expected_out, batch_id",
			from, to,
		)
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
		return nil, fmt.Errorf("batches ending: %w", err)
	}
	return out, nil
}

// ExpenseCategoriesOver returns categories whose spend since the given day exceeds limit.
func (s *Store) ExpenseCategoriesOver(ctx context.Context, since models.Date, limit float64) ([]models.CategoryTotal, error) {
	return s.categoryTotals(ctx,
		`SELECT IFNULL(category, ''), SUM(amount) AS total FROM expenses
		WHERE date >= ? GROUP BY category HAVING total > ? ORDER BY total DESC`,
		since, limit,
	)
}

func (s *Store) categoryTotals(ctx context.Context, query string, args ...any) ([]models.CategoryTotal, error) {
	var out []models.CategoryTotal
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var ct models.CategoryTotal
			if err := rows.Scan(&ct.Category, &ct.Amount); err != nil {
				return err
			}
			out = append(out, ct)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("expense categories: %w", err)
	}
	return out, nil
}
