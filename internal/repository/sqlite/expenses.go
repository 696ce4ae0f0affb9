package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

const expenseMatch = `date = ? AND category = ? AND amount = ? AND IFNULL(description, '') = ? AND IFNULL(payment_method, '') = ?`

func (s *Store) AddExpense(ctx context.Context, e models.Expense) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			"INSERT INTO expenses (date, category, amount, description, payment_method) VALUES (?, ?, ?, ?, ?)",
			e.Date, e.Category, e.Amount, e.Description, e.PaymentMethod,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// ListExpenses returns every expense, newest first.
func (s *Store) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var out []models.Expense
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT date, IFNULL(category, ''), IFNULL(amount, 0), IFNULL(description, ''), IFNULL(payment_method, '')
			FROM expenses ORDER BY date DESC, id DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e models.Expense
			if err := rows.Scan(&e.Date, &e.Category, &e.Amount, &e.Description, &e.PaymentMethod); err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// UpdateExpense rewrites every row equal to old.
func (s *Store) UpdateExpense(ctx context.Context, old, updated models.Expense) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"UPDATE expenses SET date = ?, category = ?, amount = ?, description = ?, payment_method = ? WHERE "+expenseMatch,
			updated.Date, updated.Category, updated.Amount, updated.Description, updated.PaymentMethod,
			old.Date, old.Category, old.Amount, old.Description, old.PaymentMethod,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

// DeleteExpense removes every row equal to e.
func (s *Store) DeleteExpense(ctx context.Context, e models.Expense) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"DELETE FROM expenses WHERE "+expenseMatch,
			e.Date, e.Category, e.Amount, e.Description, e.PaymentMethod,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}
