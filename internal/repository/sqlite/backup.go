package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// VacuumInto writes a consistent copy of the database to dest, which must not exist.
func (s *Store) VacuumInto(ctx context.Context, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("vacuum into %s: file exists", dest)
	}
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, "VACUUM INTO ?", dest)
		return err
	})
	if err != nil {
		return fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	return nil
}
