package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS admin (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS batches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT UNIQUE NOT NULL,
		num_chicks INTEGER,
		breed TEXT,
		date_in TEXT,
		expected_out TEXT,
		mortality_rate REAL
	)`,
	`CREATE TABLE IF NOT EXISTS feed_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT,
		date TEXT,
		quantity_kg REAL
	)`,
	`CREATE TABLE IF NOT EXISTS water_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT,
		date TEXT,
		quantity_l REAL
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT,
		category TEXT,
		amount REAL,
		description TEXT,
		payment_method TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS revenue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT,
		batch_id TEXT,
		amount REAL
	)`,
	`CREATE TABLE IF NOT EXISTS mortality (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT,
		date TEXT,
		count INTEGER,
		reason TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS vaccinations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT,
		date TEXT,
		vaccine TEXT,
		status TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS workers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		worker_id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		role TEXT,
		phone TEXT,
		email TEXT,
		address TEXT,
		salary REAL,
		hire_date TEXT,
		status TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feed_logs_batch_date ON feed_logs(batch_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_water_logs_batch_date ON water_logs(batch_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_mortality_batch ON mortality(batch_id)`,
	`CREATE INDEX IF NOT EXISTS idx_vaccinations_batch ON vaccinations(batch_id)`,
	`CREATE INDEX IF NOT EXISTS idx_revenue_batch ON revenue(batch_id)`,
}

func (s *Store) migrate(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		for _, stmt := range schema {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		return nil
	})
}

// Tables lists the data tables in creation order.
func Tables() []string {
	return []string{"admin", "batches", "feed_logs", "water_logs", "expenses", "revenue", "mortality", "vaccinations", "workers"}
}

// Count returns the number of rows in table, which must be one of Tables.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	known := false
	for _, t := range Tables() {
		if t == table {
			known = true
			break
		}
	}
	if !known {
		return 0, fmt.Errorf("count rows: unknown table %q", table)
	}

	var n int
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
