package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

// Analytics builds the profit and loss breakdown: income per batch, spend per category and a
// month-by-month statement.
func (s *Store) Analytics(ctx context.Context) (models.Analytics, error) {
	var (
		out models.Analytics
		err error
	)
	if out.RevenueByBatch, err = s.RevenueByBatch(ctx); err != nil {
		return models.Analytics{}, err
	}
	if out.ExpensesByCategory, err = s.ExpensesByCategory(ctx); err != nil {
		return models.Analytics{}, err
	}
	if out.Monthly, err = s.MonthlyProfitLoss(ctx); err != nil {
		return models.Analytics{}, err
	}
	return out, nil
}

func (s *Store) RevenueByBatch(ctx context.Context) ([]models.BatchRevenue, error) {
	var out []models.BatchRevenue
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT IFNULL(batch_id, ''), IFNULL(SUM(amount), 0) AS total FROM revenue
			GROUP BY batch_id ORDER BY total DESC, batch_id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var br models.BatchRevenue
			if err := rows.Scan(&br.BatchID, &br.Amount); err != nil {
				return err
			}
			out = append(out, br)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("revenue by batch: %w", err)
	}
	return out, nil
}

func (s *Store) ExpensesByCategory(ctx context.Context) ([]models.CategoryTotal, error) {
	return s.categoryTotals(ctx,
		`SELECT IFNULL(category, ''), IFNULL(SUM(amount), 0) AS total FROM expenses
		GROUP BY category ORDER BY total DESC`)
}

// MonthlyProfitLoss groups income and spend by YYYY-MM, oldest month first. Undated rows are
// left out.
func (s *Store) MonthlyProfitLoss(ctx context.Context) ([]models.MonthlyProfitLoss, error) {
	var out []models.MonthlyProfitLoss
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT month, IFNULL(SUM(rev), 0), IFNULL(SUM(exp), 0) FROM (
				SELECT substr(date, 1, 7) AS month, amount AS rev, 0 AS exp FROM revenue WHERE date <> ''
				UNION ALL
				SELECT substr(date, 1, 7) AS month, 0 AS rev, amount AS exp FROM expenses WHERE date <> ''
			)
			GROUP BY month ORDER BY month`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m models.MonthlyProfitLoss
			if err := rows.Scan(&m.Month, &m.Revenue, &m.Expenses); err != nil {
				return err
			}
			m.Profit = m.Revenue - m.Expenses
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("monthly profit and loss: %w", err)
	}
	return out, nil
}
