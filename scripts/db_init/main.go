package main

import (
	"context"
	"fmt"
	"os"

	dbfs "github.com/garnizeh/positionfaq/db"
	"github.com/garnizeh/positionfaq/internal/config"
	"github.com/garnizeh/positionfaq/internal/db"
	"github.com/garnizeh/positionfaq/internal/loader"
	"github.com/garnizeh/positionfaq/internal/store"
)

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	if cfg.SeedDir != "" {
		l := loader.New(store.New(database, nil), nil)
		n, err := l.LoadDir(ctx, cfg.SeedDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Seed error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d seed documents.\n", n)
	}

	fmt.Println("Database initialized successfully.")
}
