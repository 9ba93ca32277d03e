package storage

import (
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/storage/migrations"
)

// runMigrations applies all pending goose migrations.
// SQL migrations are embedded; Go migrations register themselves from the
// migrations package init.
func (s *Storage) runMigrations() error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(s.db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// SchemaVersion returns the current goose schema version
func (s *Storage) SchemaVersion() (int64, error) {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(s.db)
}
