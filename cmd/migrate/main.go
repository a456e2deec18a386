package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/convowin/convowin/internal/config"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/migration"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	// Parse command line flags
	command := flag.String("cmd", "up", "Migration command: up, down or version")
	steps := flag.Int("steps", 1, "Number of migrations to roll back with -cmd=down")
	flag.Parse()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host, "dbname", cfg.Postgres.DBName)

	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	switch *command {
	case "up":
		logger.Info("Running database migrations...")
		if err := migration.Up(db.DB); err != nil {
			logger.Fatalw("Failed to apply migrations", "error", err)
		}
	case "down":
		if *steps < 1 {
			logger.Fatalw("steps must be at least 1", "steps", *steps)
		}
		logger.Infow("Rolling back database migrations", "steps", *steps)
		if err := migration.Down(db.DB, *steps); err != nil {
			logger.Fatalw("Failed to roll back migrations", "error", err)
		}
	case "version":
		// reported below
	default:
		logger.Fatalw("Unknown migration command", "cmd", *command)
	}

	version, dirty, err := migration.Version(db.DB)
	if err != nil {
		logger.Fatalw("Failed to read schema version", "error", err)
	}
	fmt.Printf("Schema version %d (dirty: %t)\n", version, dirty)
}
