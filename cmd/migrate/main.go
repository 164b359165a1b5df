// Package main is the schema migration tool for the airline database.
//
// Migrations are embedded in the binary, so the tool needs only a database
// URL to run. Supported commands:
//
//	migrate up          apply all pending migrations
//	migrate down [n]    roll back n migrations (default 1)
//	migrate version     print the current schema version
//	migrate drop        drop all tables (destructive)
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"airline/migrations"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	databaseURL := fs.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL (defaults to DATABASE_URL)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *databaseURL == "" {
		return errors.New("database URL is required; set DATABASE_URL or pass -database-url")
	}
	if fs.NArg() < 1 {
		return errors.New("usage: migrate [-database-url URL] up|down [n]|version|drop")
	}

	m, closeFn, err := newMigrate(*databaseURL)
	if err != nil {
		return err
	}
	defer closeFn()

	switch cmd := fs.Arg(0); cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		fmt.Println("schema is up to date")
		return nil

	case "down":
		steps := 1
		if fs.NArg() > 1 {
			steps, err = strconv.Atoi(fs.Arg(1))
			if err != nil || steps < 1 {
				return fmt.Errorf("invalid step count %q", fs.Arg(1))
			}
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		fmt.Printf("rolled back %d migration(s)\n", steps)
		return nil

	case "version":
		ver, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("no migrations applied")
				return nil
			}
			return fmt.Errorf("reading migration version: %w", err)
		}
		state := "clean"
		if dirty {
			state = "dirty (needs manual intervention)"
		}
		fmt.Printf("version %d (%s)\n", ver, state)
		return nil

	case "drop":
		if err := m.Drop(); err != nil {
			return fmt.Errorf("drop failed: %w", err)
		}
		fmt.Println("all tables dropped")
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// newMigrate builds a migrate instance backed by the embedded migration
// files. The returned close function releases both the source and the
// database connection.
func newMigrate(databaseURL string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("creating postgres driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("loading embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("creating migrate instance: %w", err)
	}

	closeFn := func() {
		_, _ = m.Close()
		_ = db.Close()
	}
	return m, closeFn, nil
}
