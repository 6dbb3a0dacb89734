// Command migrate applies the schema or reports its status.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"inkpost/internal/config"
	"inkpost/internal/database"
	"inkpost/internal/observability"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
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
	observability.SetLogger(observability.NewLogger(log.Writer(), cfg.LogLevel, cfg.LogFormat == "json"))

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(db.WithContext(ctx)); err != nil {
			return err
		}
		log.Println("schema applied")
	case "status":
		return status(db.WithContext(ctx))
	default:
		return usage()
	}
	return nil
}

func status(db *gorm.DB) error {
	pending := 0
	for _, model := range database.PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("parse %T: %w", model, err)
		}
		ok := db.Migrator().HasTable(model)
		if !ok {
			pending++
		}
		log.Printf("table=%s present=%t", stmt.Schema.Table, ok)
	}
	log.Printf("pending=%d", pending)
	return nil
}
