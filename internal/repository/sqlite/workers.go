package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

const workerColumns = `worker_id, name, IFNULL(role, ''), IFNULL(phone, ''), IFNULL(email, ''), IFNULL(address, ''),
	IFNULL(salary, 0), hire_date, IFNULL(status, '')`

func scanWorker(row rowScanner) (models.Worker, error) {
	var w models.Worker
	err := row.Scan(&w.WorkerID, &w.Name, &w.Role, &w.Phone, &w.Email, &w.Address, &w.Salary, &w.HireDate, &w.Status)
	return w, err
}

func (s *Store) CreateWorker(ctx context.Context, w models.Worker) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO workers (worker_id, name, role, phone, email, address, salary, hire_date, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.WorkerID, w.Name, w.Role, w.Phone, w.Email, w.Address, w.Salary, w.HireDate, w.Status,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert worker %s: %w", w.WorkerID, err)
	}
	return nil
}

func (s *Store) GetWorker(ctx context.Context, id string) (models.Worker, error) {
	var w models.Worker
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		w, err = scanWorker(conn.QueryRowContext(ctx, "SELECT "+workerColumns+" FROM workers WHERE worker_id = ?", id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Worker{}, fmt.Errorf("get worker %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Worker{}, fmt.Errorf("get worker %s: %w", id, err)
	}
	return w, nil
}

func (s *Store) WorkerExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM workers WHERE worker_id = ?", id).Scan(&n)
	})
	if err != nil {
		return false, fmt.Errorf("check worker %s: %w", id, err)
	}
	return n > 0, nil
}

// ListWorkers returns every worker ordered by name.
func (s *Store) ListWorkers(ctx context.Context) ([]models.Worker, error) {
	return s.queryWorkers(ctx, "SELECT "+workerColumns+" FROM workers ORDER BY name, worker_id")
}

// ActiveWorkers returns the workers whose status is Active, ordered by name.
func (s *Store) ActiveWorkers(ctx context.Context) ([]models.Worker, error) {
	return s.queryWorkers(ctx, "SELECT "+workerColumns+" FROM workers WHERE status = ? ORDER BY name, worker_id", models.WorkerActive)
}

func (s *Store) queryWorkers(ctx context.Context, query string, args ...any) ([]models.Worker, error) {
	var out []models.Worker
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			w, err := scanWorker(rows)
			if err != nil {
				return err
			}
			out = append(out, w)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return out, nil
}

// UpdateWorker rewrites every column except the id.
func (s *Store) UpdateWorker(ctx context.Context, w models.Worker) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			`UPDATE workers SET name = ?, role = ?, phone = ?, email = ?, address = ?, salary = ?, hire_date = ?, status = ?
			WHERE worker_id = ?`,
			w.Name, w.Role, w.Phone, w.Email, w.Address, w.Salary, w.HireDate, w.Status, w.WorkerID,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("update worker %s: %w", w.WorkerID, err)
	}
	return nil
}

func (s *Store) DeleteWorker(ctx context.Context, id string) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, "DELETE FROM workers WHERE worker_id = ?", id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("delete worker %s: %w", id, err)
	}
	return nil
}
