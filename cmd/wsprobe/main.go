// wsprobe connects straight to a WebSocket endpoint, bypassing the proxy
// layer, and prints every connection event. Useful for checking what a
// backend actually emits against a given server.
// Usage: go run ./cmd/wsprobe --config configs/wstail.example.yaml --verbose
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/akrylov/wsproxy/internal/config"
	"github.com/akrylov/wsproxy/internal/socket"
)

func main() {
	configPath := flag.String("config", "configs/wstail.example.yaml", "path to config file")
	urlOverride := flag.String("url", "", "target url (overrides config)")
	backendOverride := flag.String("backend", "", "socket backend: gorilla or coder (overrides config)")
	verbose := flag.Bool("verbose", false, "print state change events too")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *urlOverride != "" {
		cfg.Target.URL = *urlOverride
	}
	if *backendOverride != "" {
		cfg.Target.Backend = *backendOverride
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	sockCfg := socket.Config{
		Origin:           cfg.Target.Origin,
		Subprotocols:     cfg.Target.Subprotocols,
		HandshakeTimeout: cfg.Socket.HandshakeTimeout,
		WriteTimeout:     cfg.Socket.WriteTimeout,
		PingInterval:     cfg.Socket.PingInterval,
		PingTimeout:      cfg.Socket.PingTimeout,
		ReadLimit:        cfg.Socket.ReadLimit,
		EventBuffer:      cfg.Socket.EventBuffer,
	}

	var conn socket.Conn
	switch cfg.Target.Backend {
	case "coder":
		conn = socket.NewCoder(sockCfg, logger)
	default:
		conn = socket.NewGorilla(sockCfg, logger)
	}

	logger.Info("probing", "url", cfg.Target.URL, "backend", cfg.Target.Backend)
	if err := conn.Open(ctx, cfg.Target.URL); err != nil {
		logger.Error("open failed", "error", err)
		os.Exit(1)
	}

	var texts, binaries, errs atomic.Int64

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info("stats",
					"state", conn.State(),
					"texts", texts.Load(),
					"binaries", binaries.Load(),
					"errors", errs.Load(),
				)
			}
		}
	}()

	logger.Info("probe started - press Ctrl+C to stop")

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-conn.Events():
			if !ok {
				break loop
			}
			switch ev.Kind {
			case socket.EventTextMessage:
				texts.Add(1)
				fmt.Printf("[TEXT] %s\n", ev.Text)
			case socket.EventBinaryMessage:
				binaries.Add(1)
				fmt.Printf("[BINARY] %d bytes: %x\n", len(ev.Data), ev.Data)
			case socket.EventError:
				errs.Add(1)
				fmt.Printf("[ERROR] %v\n", ev.Err)
			case socket.EventStateChanged:
				if *verbose {
					fmt.Printf("[STATE] %s\n", ev.State)
				}
			case socket.EventConnected:
				fmt.Println("[CONNECTED]")
			case socket.EventDisconnected:
				fmt.Println("[DISCONNECTED]")
				break loop
			}
		}
	}

	if err := conn.Close(socket.CloseNormalClosure, "probe done"); err != nil {
		logger.Debug("close", "error", err)
	}
	logger.Info("probe finished",
		"texts", texts.Load(),
		"binaries", binaries.Load(),
		"errors", errs.Load(),
	)
}
