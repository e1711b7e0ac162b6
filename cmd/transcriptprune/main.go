// transcriptprune deletes transcript rows older than a retention window.
// Meant to run from cron against the same database the recorder writes to.
// Usage: go run ./cmd/transcriptprune --config configs/wstail.example.yaml --older-than 168h
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/akrylov/wsproxy/internal/config"
	"github.com/akrylov/wsproxy/internal/database"
)

func main() {
	configPath := flag.String("config", "configs/wstail.example.yaml", "path to config file")
	olderThan := flag.Duration("older-than", 7*24*time.Hour, "delete messages older than this")
	dryRun := flag.Bool("dry-run", false, "count matching rows without deleting")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	cutoff := time.Now().Add(-*olderThan).UnixMicro()

	if *dryRun {
		var count int64
		err := pool.QueryRow(ctx,
			`SELECT count(*) FROM ws_messages WHERE received_at < $1`, cutoff,
		).Scan(&count)
		if err != nil {
			logger.Error("count failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("would delete %d messages older than %s\n", count, olderThan)
		return
	}

	start := time.Now()
	tag, err := pool.Exec(ctx,
		`DELETE FROM ws_messages WHERE received_at < $1`, cutoff,
	)
	if err != nil {
		logger.Error("prune failed", "error", err)
		os.Exit(1)
	}

	logger.Info("prune complete",
		"deleted", tag.RowsAffected(),
		"older_than", olderThan.String(),
		"duration", time.Since(start),
	)
}
