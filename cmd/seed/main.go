package main

import (
	"context"
	"fmt"
	"mcp-directory/internal/config"
	"mcp-directory/internal/data"
	"mcp-directory/internal/logger"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	file := pflag.StringP("file", "f", "configs/fixtures.example.yml", "YAML fixture to load")
	migrate := pflag.Bool("migrate", true, "apply migrations before seeding")
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log, os.Stdout)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err, "Invalid store configuration")
	}

	in, err := os.Open(*file)
	if err != nil {
		log.Fatal(err, "Failed to open fixture")
	}
	defer in.Close()
	f, err := decodeFixture(in)
	if err != nil {
		log.Fatal(err, "Failed to read fixture")
	}

	if *migrate {
		if err := data.ApplyMigrations(cfg.DB); err != nil {
			log.Fatal(err, "Failed to apply migrations")
		}
	}
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	n, err := f.load(context.Background(), data.NewSeeder(db))
	if err != nil {
		log.Fatal(err, "Failed to seed directory")
	}
	log.With(map[string]interface{}{
		"categories": len(f.Categories),
		"tags":       len(f.Tags),
		"listings":   n,
	}).Info("Directory seeded")
}
