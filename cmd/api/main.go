package main

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"seamerge/adapters/postgres"
	"seamerge/internal/api"
	"seamerge/internal/config"
	"seamerge/internal/ingest"
	"seamerge/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("[Main] failed to connect to database: %v", err)
	}
	defer db.Close()

	fs := storage.NewLocalFileStorageWithPath(cfg.Storage.BasePath)
	repo := postgres.NewMergedFileRepository(db)
	server := api.NewServer(ingest.NewDateAnalyzer(), fs, repo)
	server.SetAnalyzeConcurrency(cfg.Server.AnalyzeConcurrency)

	if err := server.Start(api.Config{Port: cfg.Server.Port}); err != nil {
		log.Fatalf("[Main] %v", err)
	}
}
