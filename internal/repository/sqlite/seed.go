package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mamadbah2/dashpoultry/pkg/password"
)

// SeedAdmin creates the admin account with a bcrypt hash of plain unless it already exists.
// It reports whether a row was inserted.
func (s *Store) SeedAdmin(ctx context.Context, username, plain string) (bool, error) {
	_, err := s.GetAdmin(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	hash, err := password.Hash(plain)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	err = s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, "INSERT INTO admin (username, password) VALUES (?, ?)", username, hash)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("insert admin: %w", err)
	}
	return true, nil
}

type sampleTable struct {
	name string
	rows []string
}

var sampleData = []sampleTable{
	{"batches", []string{
		`INSERT INTO batches (batch_id, num_chicks, breed, date_in, expected_out, mortality_rate) VALUES ('B001', 500, 'Broiler', '2024-06-01', '2024-08-01', 0.02)`,
		`INSERT INTO batches (batch_id, num_chicks, breed, date_in, expected_out, mortality_rate) VALUES ('B002', 400, 'Layer', '2024-06-15', '2024-09-15', 0.01)`,
	}},
	{"feed_logs", []string{
		`INSERT INTO feed_logs (batch_id, date, quantity_kg) VALUES ('B001', '2024-06-01', 50)`,
		`INSERT INTO feed_logs (batch_id, date, quantity_kg) VALUES ('B001', '2024-06-02', 48)`,
		`INSERT INTO feed_logs (batch_id, date, quantity_kg) VALUES ('B002', '2024-06-15', 40)`,
	}},
	{"water_logs", []string{
		`INSERT INTO water_logs (batch_id, date, quantity_l) VALUES ('B001', '2024-06-01', 300)`,
		`INSERT INTO water_logs (batch_id, date, quantity_l) VALUES ('B001', '2024-06-02', 320)`,
		`INSERT INTO water_logs (batch_id, date, quantity_l) VALUES ('B002', '2024-06-15', 250)`,
	}},
	{"expenses", []string{
		`INSERT INTO expenses (date, category, amount, description, payment_method) VALUES ('2024-06-01', 'Feed', 100, 'Broiler feed for B001 batch', 'Cash')`,
		`INSERT INTO expenses (date, category, amount, description, payment_method) VALUES ('2024-06-02', 'Electricity', 30, 'Monthly electricity bill', 'Bank Transfer')`,
		`INSERT INTO expenses (date, category, amount, description, payment_method) VALUES ('2024-06-15', 'Medicine', 50, 'Vaccines and medicines', 'Cash')`,
		`INSERT INTO expenses (date, category, amount, description, payment_method) VALUES ('2024-06-20', 'Labor', 5000, 'Worker salary payment', 'Bank Transfer')`,
		`INSERT INTO expenses (date, category, amount, description, payment_method) VALUES ('2024-06-25', 'Equipment', 1500, 'New feeding equipment', 'UPI')`,
	}},
	{"revenue", []string{
		`INSERT INTO revenue (date, batch_id, amount) VALUES ('2024-08-01', 'B001', 3000)`,
		`INSERT INTO revenue (date, batch_id, amount) VALUES ('2024-09-15', 'B002', 2500)`,
	}},
	{"mortality", []string{
		`INSERT INTO mortality (batch_id, date, count, reason) VALUES ('B001', '2024-06-02', 3, 'Sickness')`,
		`INSERT INTO mortality (batch_id, date, count, reason) VALUES ('B002', '2024-06-16', 1, 'Accident')`,
	}},
	{"vaccinations", []string{
		`INSERT INTO vaccinations (batch_id, date, vaccine, status) VALUES ('B001', '2024-06-05', 'Newcastle Disease', 'Completed')`,
		`INSERT INTO vaccinations (batch_id, date, vaccine, status) VALUES ('B001', '2024-06-20', 'Infectious Bronchitis', 'Scheduled')`,
		`INSERT INTO vaccinations (batch_id, date, vaccine, status) VALUES ('B002', '2024-06-20', 'Marek Disease', 'Completed')`,
	}},
	{"workers", []string{
		`INSERT INTO workers (worker_id, name, role, phone, email, address, salary, hire_date, status) VALUES ('W001', 'Rajesh Kumar', 'Farm Manager', '9876543210', 'rajesh@farm.com', 'Village Road, District', 25000.00, '2024-01-15', 'Active')`,
		`INSERT INTO workers (worker_id, name, role, phone, email, address, salary, hire_date, status) VALUES ('W002', 'Priya Singh', 'Feeder', '8765432109', 'priya@farm.com', 'Main Street, City', 15000.00, '2024-02-01', 'Active')`,
		`INSERT INTO workers (worker_id, name, role, phone, email, address, salary, hire_date, status) VALUES ('W003', 'Amit Patel', 'Cleaner', '7654321098', 'amit@farm.com', 'Industrial Area, Town', 12000.00, '2024-03-10', 'Active')`,
	}},
}

// SeedSampleData fills each empty data table with demonstration rows and returns the tables
// it touched.
func (s *Store) SeedSampleData(ctx context.Context) ([]string, error) {
	var seeded []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range sampleData {
			var n int
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table.name).Scan(&n); err != nil {
				return fmt.Errorf("count %s: %w", table.name, err)
			}
			if n > 0 {
				continue
			}
			for _, stmt := range table.rows {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("seed %s: %w", table.name, err)
				}
			}
			seeded = append(seeded, table.name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed sample data: %w", err)
	}
	return seeded, nil
}
