package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/examforge/examforge-backend/internal/config"
)

// Schema migration runner for the ExamForge database. The server never
// migrates on boot, so schema changes are applied explicitly with this
// tool before a deploy.
func main() {
	dir := flag.String("dir", "migrations", "directory holding the SQL migration files")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [-dir path] <command>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "commands:")
		fmt.Fprintln(os.Stderr, "  up               apply all pending migrations")
		fmt.Fprintln(os.Stderr, "  down             roll back all migrations")
		fmt.Fprintln(os.Stderr, "  version          print the current schema version")
		fmt.Fprintln(os.Stderr, "  force <version>  mark the schema version without running anything")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "migrate: DATABASE_URL is not set")
		os.Exit(1)
	}

	m, err := migrate.New("file://"+*dir, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	if err := run(m, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(m *migrate.Migrate, args []string) error {
	switch args[0] {
	case "up":
		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("schema is up to date")
				return nil
			}
			return fmt.Errorf("up: %w", err)
		}
		fmt.Println("schema migrated")
	case "down":
		if err := m.Down(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("nothing to roll back")
				return nil
			}
			return fmt.Errorf("down: %w", err)
		}
		fmt.Println("schema rolled back")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("version: %w", err)
		}
		fmt.Printf("version %d (dirty: %t)\n", version, dirty)
	case "force":
		if len(args) < 2 {
			return errors.New("force needs a version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("force: bad version %q", args[1])
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("force: %w", err)
		}
		fmt.Printf("forced version to %d\n", v)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}
