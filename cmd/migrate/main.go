// Command migrate applies the complaint schema migrations embedded in the
// binary to a PostgreSQL database.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/pkg/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "TRIAGE_DB_DSN"

func main() {
	var (
		dsn     = flag.String("dsn", "", "Database connection string (default $"+envDSN+", then TRIAGE_DB_*)")
		up      = flag.Bool("up", false, "Run all up migrations")
		down    = flag.Bool("down", false, "Run all down migrations")
		steps   = flag.Int("steps", 0, "Number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print current migration version")
		force   = flag.Int("force", -1, "Force set version after a failed migration")
	)
	flag.Parse()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	if *dsn == "" {
		*dsn = os.Getenv(envDSN)
	}
	if *dsn == "" {
		url, err := defaultDSN()
		if err != nil {
			log.Fatalf("invalid database configuration: %v", err)
		}
		*dsn = url
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Fatalf("failed to create migration source: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, *dsn)
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			return
		}
		if err != nil {
			log.Fatalf("failed to get version: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			log.Fatalf("failed to force version: %v", err)
		}
		fmt.Printf("forced to version %d\n", *force)
	case *up:
		report("up", m.Up())
	case *down:
		report("down", m.Down())
	case *steps != 0:
		report(fmt.Sprintf("%d steps", *steps), m.Steps(*steps))
	default:
		fmt.Println("usage: migrate [-dsn <connection-string>] [-up|-down|-steps N|-version|-force N]")
		flag.PrintDefaults()
	}
}

// defaultDSN builds the connection from TRIAGE_DB_* variables over the
// local development credentials.
func defaultDSN() (string, error) {
	cfg := database.Config{Name: "triage", User: "triage", Password: "triage"}
	if err := cfg.Finalize(config.DatabaseEnv()); err != nil {
		return "", err
	}
	return cfg.URL(), nil
}

func report(op string, err error) {
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Printf("migrate %s: no change\n", op)
	case err != nil:
		log.Fatalf("migrate %s failed: %v", op, err)
	default:
		fmt.Printf("migrate %s: applied\n", op)
	}
}
