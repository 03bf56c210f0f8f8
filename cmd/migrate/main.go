package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dvloznov/chat-ledger/internal/config"
	"github.com/dvloznov/chat-ledger/internal/infra/sqlite"
	"github.com/dvloznov/chat-ledger/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal().Err(err).Msg("Failed to load configuration")
	}

	var (
		dbPath    = flag.String("db", cfg.DatabasePath, "SQLite database path (or set DATABASE_PATH env)")
		appliedBy = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		status    = flag.Bool("status", false, "Only print applied and pending migrations")
	)
	flag.Parse()

	log := logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	db, err := sqlite.OpenDB(ctx, *dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *dbPath).Msg("Failed to open database")
	}
	defer db.Close()

	log.Info().Str("path", *dbPath).Msg("Connected to ledger database")

	if *status {
		err = printStatus(ctx, db, os.Stdout)
	} else {
		err = run(ctx, db, *appliedBy, os.Stdout)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

// run applies pending migrations and reports how many ran.
func run(ctx context.Context, db *sql.DB, appliedBy string, out io.Writer) error {
	n, err := sqlite.Migrate(ctx, db, appliedBy)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(out, "No pending migrations.")
		return nil
	}
	fmt.Fprintf(out, "Applied %d migration(s).\n", n)
	return nil
}

// printStatus lists every known migration with its state.
func printStatus(ctx context.Context, db *sql.DB, out io.Writer) error {
	migrations, err := sqlite.ReadMigrations()
	if err != nil {
		return err
	}
	applied, err := sqlite.AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	byVersion := make(map[int]sqlite.AppliedMigration, len(applied))
	for _, am := range applied {
		byVersion[am.Version] = am
	}

	for _, m := range migrations {
		am, ok := byVersion[m.Version]
		switch {
		case !ok:
			fmt.Fprintf(out, "%04d_%s\tpending\n", m.Version, m.Name)
		case am.Checksum != m.Checksum:
			fmt.Fprintf(out, "%04d_%s\tchanged\n", m.Version, m.Name)
		default:
			fmt.Fprintf(out, "%04d_%s\tapplied %s by %s\n", m.Version, m.Name,
				am.AppliedAt.Format(time.RFC3339), am.AppliedBy)
		}
	}
	return nil
}
