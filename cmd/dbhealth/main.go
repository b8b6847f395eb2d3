// dbhealth pings the record database and exits non-zero on failure.
package main

import (
	"context"
	"os"
	"time"

	"github.com/youngcitybandit/nj-health-monitor/internal/common"
	"github.com/youngcitybandit/nj-health-monitor/internal/cursor"
	"github.com/youngcitybandit/nj-health-monitor/internal/repository"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("loading config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.LogLevel)
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}

	cur, err := cursor.Open(cfg.Cursor.Path)
	if err != nil {
		logger.Error("cursor store check failed", "error", err, "path", cfg.Cursor.Path)
		os.Exit(1)
	}
	if _, err := cur.LastCheck(ctx); err != nil {
		logger.Error("cursor store read failed", "error", err)
		os.Exit(1)
	}
	cur.Close()

	logger.Info("database health OK")
}
