package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

// BatchTotals counts batches, those placed on or after recentSince, placed birds, and
// lifetime feed and water.
func (s *Store) BatchTotals(ctx context.Context, recentSince models.Date) (models.BatchTotals, error) {
	var t models.BatchTotals
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx,
			`SELECT COUNT(*), IFNULL(SUM(CASE WHEN date_in >= ? THEN 1 ELSE 0 END), 0), IFNULL(SUM(num_chicks), 0) FROM batches`,
			recentSince,
		).Scan(&t.Total, &t.Recent, &t.Birds); err != nil {
			return err
		}
		if err := conn.QueryRowContext(ctx, "SELECT IFNULL(SUM(quantity_kg), 0) FROM feed_logs").Scan(&t.FeedKg); err != nil {
			return err
		}
		return conn.QueryRowContext(ctx, "SELECT IFNULL(SUM(quantity_l), 0) FROM water_logs").Scan(&t.WaterL)
	})
	if err != nil {
		return models.BatchTotals{}, fmt.Errorf("batch totals: %w", err)
	}
	return t, nil
}

func (s *Store) FinancialTotals(ctx context.Context) (models.FinancialTotals, error) {
	var t models.FinancialTotals
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx, "SELECT IFNULL(SUM(amount), 0) FROM revenue").Scan(&t.Revenue); err != nil {
			return err
		}
		if err := conn.QueryRowContext(ctx, "SELECT IFNULL(SUM(amount), 0) FROM expenses").Scan(&t.Expenses); err != nil {
			return err
		}
		return conn.QueryRowContext(ctx, "SELECT IFNULL(SUM(count), 0) FROM mortality").Scan(&t.TotalMortality)
	})
	if err != nil {
		return models.FinancialTotals{}, fmt.Errorf("financial totals: %w", err)
	}
	return t, nil
}

func (s *Store) WorkerTotals(ctx context.Context) (models.WorkerTotals, error) {
	var t models.WorkerTotals
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx,
			`SELECT COUNT(*),
				IFNULL(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
				IFNULL(SUM(CASE WHEN status = ? THEN salary ELSE 0 END), 0)
			FROM workers`,
			models.WorkerActive, models.WorkerActive,
		).Scan(&t.Total, &t.Active, &t.ActiveSalary)
	})
	if err != nil {
		return models.WorkerTotals{}, fmt.Errorf("worker totals: %w", err)
	}
	return t, nil
}

func (s *Store) HealthTotals(ctx context.Context) (models.HealthTotals, error) {
	var t models.HealthTotals
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx,
			`SELECT IFNULL(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
				IFNULL(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
			FROM vaccinations`,
			models.VaccinationScheduled, models.VaccinationCompleted,
		).Scan(&t.Scheduled, &t.Completed); err != nil {
			return err
		}
		if err := conn.QueryRowContext(ctx, "SELECT IFNULL(SUM(count), 0) FROM mortality").Scan(&t.TotalMortality); err != nil {
			return err
		}
		return conn.QueryRowContext(ctx, "SELECT IFNULL(SUM(num_chicks), 0) FROM batches").Scan(&t.Birds)
	})
	if err != nil {
		return models.HealthTotals{}, fmt.Errorf("health totals: %w", err)
	}
	return t, nil
}

// PeriodTotals sums activity dated within [from, to]. A batch is active when it was placed on
// or before to and is not expected out before from.
func (s *Store) PeriodTotals(ctx context.Context, from, to models.Date) (models.PeriodTotals, error) {
	t := models.PeriodTotals{From: from, To: to}
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		sums := []struct {
			query string
			dest  any
		}{
			{"SELECT IFNULL(SUM(quantity_kg), 0) FROM feed_logs WHERE date BETWEEN ? AND ?", &t.FeedKg},
			{"SELECT IFNULL(SUM(quantity_l), 0) FROM water_logs WHERE date BETWEEN ? AND ?", &t.WaterL},
			{"SELECT IFNULL(SUM(count), 0) FROM mortality WHERE date BETWEEN ? AND ?", &t.Mortality},
			{"SELECT COUNT(*) FROM vaccinations WHERE date BETWEEN ? AND ?", &t.Vaccinations},
			{"SELECT IFNULL(SUM(amount), 0) FROM revenue WHERE date BETWEEN ? AND ?", &t.Revenue},
			{"SELECT IFNULL(SUM(amount), 0) FROM expenses WHERE date BETWEEN ? AND ?", &t.Expenses},
		}
		for _, sum := range sums {
			if err := conn.QueryRowContext(ctx, sum.query, from, to).Scan(sum.dest); err != nil {
				return err
			}
		}
		return conn.QueryRowContext(ctx,
			`SELECT COUNT(*), IFNULL(SUM(num_chicks), 0) FROM batches
			WHERE date_in <= ? AND (IFNULL(expected_out, '') = '' OR expected_out >= ?)`,
			to, from,
		).Scan(&t.ActiveBatches, &t.Birds)
	})
	if err != nil {
		return models.PeriodTotals{}, fmt.Errorf("period totals %s..%s: %w", from, to, err)
	}
	return t, nil
}
