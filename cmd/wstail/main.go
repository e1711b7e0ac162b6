// wstail connects to a WebSocket endpoint and streams received messages to
// the console. Lines read from stdin are sent as text messages.
// Usage: go run ./cmd/wstail --config configs/wstail.example.yaml
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/akrylov/wsproxy/internal/config"
	"github.com/akrylov/wsproxy/internal/database"
	"github.com/akrylov/wsproxy/internal/proxy"
	"github.com/akrylov/wsproxy/internal/recorder"
	"github.com/akrylov/wsproxy/internal/socket"
	"github.com/akrylov/wsproxy/internal/status"
	"github.com/akrylov/wsproxy/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/wstail.example.yaml", "path to config file")
	urlOverride := flag.String("url", "", "target url (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("wstail", version.String())
		return
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if *urlOverride != "" {
		cfg.Target.URL = *urlOverride
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
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

	var factory proxy.ConnFactory
	switch cfg.Target.Backend {
	case "coder":
		factory = func() socket.Conn { return socket.NewCoder(sockCfg, logger) }
	default:
		factory = func() socket.Conn { return socket.NewGorilla(sockCfg, logger) }
	}

	px := proxy.New(factory,
		proxy.WithLogger(logger),
		proxy.WithEventBuffer(cfg.Proxy.EventBuffer),
	)
	defer px.Shutdown()

	// Optional transcript recorder
	var rec *recorder.Recorder
	if cfg.Recorder.Enabled {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect transcript store", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		rec = recorder.New(cfg.Recorder, pool, logger)
		if err := rec.Start(ctx); err != nil {
			logger.Error("failed to start recorder", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			_ = rec.Stop(stopCtx)
		}()
	}

	record := func(kind string, payload []byte) {
		if rec == nil {
			return
		}
		rec.Record(recorder.Message{
			SessionID:  px.ID(),
			Direction:  recorder.DirectionInbound,
			Kind:       kind,
			Payload:    payload,
			ReceivedAt: time.Now(),
		})
	}

	adapter := status.New(px,
		status.WithLogger(logger),
		status.OnStatusChanged(func(s status.Status) {
			logger.Info("status changed", "status", s)
		}),
		status.OnErrorStringChanged(func(text string) {
			if text != "" {
				logger.Warn("connection error", "error", text)
			}
		}),
		status.OnTextMessage(func(message string) {
			fmt.Println(message)
			record(recorder.KindText, []byte(message))
		}),
		status.OnBinaryMessage(func(message []byte) {
			fmt.Printf("[binary %d bytes] %x\n", len(message), message)
			record(recorder.KindBinary, message)
		}),
	)
	if err := adapter.Start(ctx); err != nil {
		logger.Error("failed to start status adapter", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = adapter.Stop(stopCtx)
	}()

	adapter.SetURL(cfg.Target.URL)
	adapter.SetActive(true)

	eg, egCtx := errgroup.WithContext(ctx)

	// Forward stdin lines as text messages.
	eg.Go(func() error {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case <-egCtx.Done():
				return nil
			default:
			}
			line := scanner.Text()
			if line == "" {
				continue
			}
			if n := adapter.SendTextMessage(line); n == 0 {
				logger.Warn("send rejected", "error", adapter.ErrorString())
			}
		}
		return scanner.Err()
	})

	eg.Go(func() error {
		<-egCtx.Done()
		return nil
	})

	if err := eg.Wait(); err != nil {
		logger.Error("wstail exited with error", "error", err)
	}

	adapter.SetActive(false)
	logger.Info("wstail shutting down")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
