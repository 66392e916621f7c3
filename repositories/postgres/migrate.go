package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/main/*.sql migrations/audit/*.sql
var migrationFS embed.FS

// MigrationSet selects which embedded migrations to apply
type MigrationSet string

const (
	// MainMigrations holds the full schema, including the lock decision procedure
	MainMigrations MigrationSet = "migrations/main"
	// AuditMigrations holds only audit_logs, for a separate audit database
	AuditMigrations MigrationSet = "migrations/audit"
)

// ErrNoChange is returned when Up/Down has nothing to do
var ErrNoChange = migrate.ErrNoChange

// Migrate applies the embedded migration set against the database URL.
// direction must be "up" or "down". Already being at the target version is not an error.
func Migrate(databaseURL string, set MigrationSet, direction string) error {
	if strings.TrimSpace(databaseURL) == "" {
		return errors.New("database url is not set; set DATABASE_URL")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}
	if set != MainMigrations && set != AuditMigrations {
		return fmt.Errorf("unknown migration set %q", set)
	}

	sourceDriver, err := iofs.New(migrationFS, string(set))
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
