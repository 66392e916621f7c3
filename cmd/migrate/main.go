package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/upb/lifedash/config"
	"github.com/upb/lifedash/repositories/postgres"
)

func main() {
	direction := flag.String("direction", "up", "up or down")
	target := flag.String("db", "main", "main or audit")
	flag.Parse()

	if err := run(*direction, *target); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(direction, target string) error {
	cfg, err := config.New(context.Background())
	if err != nil {
		return err
	}

	var (
		databaseURL string
		set         postgres.MigrationSet
	)
	switch target {
	case "main":
		databaseURL, set = cfg.Database.URL(), postgres.MainMigrations
	case "audit":
		if cfg.AuditDatabase == nil {
			return fmt.Errorf("DATABASE_URL_AUDIT is not set; audit_logs lives in the main database")
		}
		databaseURL, set = cfg.AuditDatabase.URL(), postgres.AuditMigrations
	default:
		return fmt.Errorf("unknown -db %q: want main or audit", target)
	}

	if err := postgres.Migrate(databaseURL, set, direction); err != nil {
		return err
	}

	fmt.Printf("migrations %s applied to %s database\n", direction, target)
	return nil
}
