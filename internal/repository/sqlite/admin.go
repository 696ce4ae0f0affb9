package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mamadbah2/dashpoultry/internal/domain/models"
)

func (s *Store) GetAdmin(ctx context.Context, username string) (models.AdminCredential, error) {
	var cred models.AdminCredential
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx,
			"SELECT username, password FROM admin WHERE username = ?", username,
		).Scan(&cred.Username, &cred.PasswordHash)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.AdminCredential{}, fmt.Errorf("get admin %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return models.AdminCredential{}, fmt.Errorf("get admin %s: %w", username, err)
	}
	return cred, nil
}

// UpdateAdminPassword stores a new bcrypt hash for username.
func (s *Store) UpdateAdminPassword(ctx context.Context, username, hash string) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, "UPDATE admin SET password = ? WHERE username = ?", hash, username)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return nil
}
