// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"socialpost/internal/config"
	"socialpost/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <ensure|auto|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))

	// ensure runs against the maintenance database, before the target exists.
	if cmd == "ensure" {
		created, err := database.EnsureDatabase(ctx, cfg)
		if err != nil {
			return fmt.Errorf("ensure database failed: %w", err)
		}
		if created {
			log.Printf("created database %q", cfg.DBName)
		} else {
			log.Printf("database %q already exists", cfg.DBName)
		}
		return nil
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	switch cmd {
	case "auto":
		if err := database.AutoMigrate(ctx, db); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		tables, err := database.SchemaStatus(ctx, db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		for _, t := range tables {
			log.Printf("%-20s exists=%t", t.Table, t.Exists)
		}
	default:
		return usage()
	}

	return nil
}
