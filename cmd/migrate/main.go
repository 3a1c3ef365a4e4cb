// Command migrate applies the embedded database migrations.
//
//	go run ./cmd/migrate -direction up
package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/shandysiswandi/supavault/internal/pkg/config"
	"github.com/shandysiswandi/supavault/internal/pkg/dbmigrate"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadEnvFiles(".env"); err != nil {
		logger.Error("failed to load env file", "error", err)
		os.Exit(1)
	}

	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}
	defer cfg.Close()

	dir, err := dbmigrate.ParseDirection(*direction)
	if err != nil {
		logger.Error("invalid direction", "error", err)
		os.Exit(1)
	}

	if err := dbmigrate.Run(cfg.GetString("database.url"), dir); err != nil {
		logger.Error("migration failed", "direction", dir, "error", err)
		os.Exit(1)
	}

	version, dirty, err := dbmigrate.Version(cfg.GetString("database.url"))
	if err != nil {
		logger.Warn("failed to read schema version", "error", err)
		return
	}
	logger.Info("migration complete", "direction", dir, "version", version, "dirty", dirty)
}
