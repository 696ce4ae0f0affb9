package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

func (s *Store) AddVaccination(ctx context.Context, v models.VaccinationRecord) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			"INSERT INTO vaccinations (batch_id, date, vaccine, status) VALUES (?, ?, ?, ?)",
			v.BatchID, v.Date, v.Vaccine, v.Status,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert vaccination %s: %w", v.BatchID, err)
	}
	return nil
}

// ListVaccinations returns records newest first, optionally for one batch.
func (s *Store) ListVaccinations(ctx context.Context, batchID string) ([]models.VaccinationRecord, error) {
	return s.queryVaccinations(ctx,
		`SELECT batch_id, date, IFNULL(vaccine, ''), IFNULL(status, '') FROM vaccinations
		WHERE ? = '' OR batch_id = ? ORDER BY date DESC, id DESC`,
		batchID, batchID,
	)
}

func (s *Store) queryVaccinations(ctx context.Context, query string, args ...any) ([]models.VaccinationRecord, error) {
	var out []models.VaccinationRecord
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var v models.VaccinationRecord
			if err := rows.Scan(&v.BatchID, &v.Date, &v.Vaccine, &v.Status); err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list vaccinations: %w", err)
	}
	return out, nil
}

// UpdateVaccination rewrites every row matching the (batch, date, vaccine) of old.
func (s *Store) UpdateVaccination(ctx context.Context, old, updated models.VaccinationRecord) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			`UPDATE vaccinations SET batch_id = ?, date = ?, vaccine = ?, status = ?
			WHERE batch_id = ? AND date = ? AND vaccine = ?`,
			updated.BatchID, updated.Date, updated.Vaccine, updated.Status,
			old.BatchID, old.Date, old.Vaccine,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("update vaccination %s: %w", old.BatchID, err)
	}
	return nil
}

// DeleteVaccination removes every row matching the (batch, date, vaccine) of v.
func (s *Store) DeleteVaccination(ctx context.Context, v models.VaccinationRecord) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx,
			"DELETE FROM vaccinations WHERE batch_id = ? AND date = ? AND vaccine = ?",
			v.BatchID, v.Date, v.Vaccine,
		)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("delete vaccination %s: %w", v.BatchID, err)
	}
	return nil
}
