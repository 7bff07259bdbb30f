package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/zfogg/soundfp/internal/config"
	"github.com/zfogg/soundfp/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, using system environment variables")
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		runUp()
	default:
		fmt.Println("Usage: migrate [up]")
		fmt.Println("  up    - connect to the configured store, auto-migrate the schema, and check the schema identifier")
		os.Exit(1)
	}
}

func runUp() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	log.Println("connecting to model store...")
	db, err := store.Open(cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()
	log.Println("store connected and schema migrated")

	want := store.SchemaID{
		Rows:            cfg.DSP.Rows,
		Cols:            cfg.DSP.Cols,
		TopWavelets:     cfg.DSP.TopWavelets,
		L:               cfg.DSP.L,
		K:               cfg.DSP.K,
		PermutationSeed: cfg.DSP.PermutationSeed,
	}
	if err := db.EnsureSchema(context.Background(), want); err != nil {
		log.Fatalf("schema check failed: %v", err)
	}
	log.Println("schema identifier matches runtime configuration")
}
