package main

import (
	"log"

	"github.com/joho/godotenv"

	"devforge/internal/cli"
	"devforge/internal/config"
	"devforge/internal/logger"
)

func main() {
	// Optional; environment variables win either way.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := logger.Init(cfg.LogPath, cfg.Debug); err != nil {
		log.Fatalf("Fatal Error: Could not initialize logger: %v", err)
	}
	defer logger.Sync()

	cli.Execute(cfg)
}
