// Package sqlite is the single-file store holding every farm record.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no row matches the requested key or tuple.
var ErrNotFound = errors.New("record not found")

const busyTimeoutMillis = 5000

// Store wraps the SQLite database. A connection is taken from the pool for each operation and
// released when it returns.
type Store struct {
	db        *sql.DB
	path      string
	encrypted bool
	logger    *zap.Logger
}

// Open opens (creating when needed) the database file at path and ensures the schema exists.
// When encryptionKey is set the driver is probed for cipher support once.
func Open(ctx context.Context, path, encryptionKey string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = "dash_poultry.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, busyTimeoutMillis)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	store := &Store{db: db, path: path, logger: logger}

	if err := store.probeEncryption(ctx, encryptionKey); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Info("database ready", zap.String("path", path), zap.Bool("encrypted", store.encrypted))
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path is the database file location.
func (s *Store) Path() string {
	return s.path
}

// Encrypted reports whether a cipher key was applied at open.
func (s *Store) Encrypted() bool {
	return s.encrypted
}

// Ping checks that a connection can be acquired.
func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

func (s *Store) probeEncryption(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	return s.withConn(ctx, func(conn *sql.Conn) error {
		var version string
		err := conn.QueryRowContext(ctx, "PRAGMA cipher_version").Scan(&version)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && version == "") {
			s.logger.Info("encryption unavailable in sqlite driver, continuing unencrypted")
			return nil
		}
		if err != nil {
			s.logger.Info("encryption probe failed, continuing unencrypted", zap.Error(err))
			return nil
		}

		quoted := strings.ReplaceAll(key, "'", "''")
		if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA key = '%s'", quoted)); err != nil {
			return fmt.Errorf("apply encryption key: %w", err)
		}
		s.encrypted = true
		return nil
	})
}

func (s *Store) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
