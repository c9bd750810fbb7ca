package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pageza/fusion-kitchen/backend/config"
	"github.com/pageza/fusion-kitchen/backend/internal/database"
	"github.com/pageza/fusion-kitchen/backend/internal/logger"
)

const usage = `usage: migrate [up|down|version]

Applies the embedded SQL migrations to the configured PostgreSQL database.
DATABASE_URL or the DB_* variables select the database.`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, _ := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Development: true})
	defer func() { _ = log.Sync() }()

	if cfg.Database.Driver != "postgres" {
		log.Fatal("Migrations only apply to postgres; sqlite is auto-migrated on startup",
			zap.String("driver", cfg.Database.Driver))
	}

	m, err := database.OpenMigrator(cfg.Database.MigrationURL(), log)
	if err != nil {
		log.Fatal("Failed to open migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = m.Version()
		if err == nil {
			log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}
