package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
target:
  url: wss://echo.example.com/stream
  backend: coder
  origin: https://example.com
socket:
  handshake_timeout: 3s
  write_timeout: 2s
database:
  host: localhost
  port: 5432
  name: test_db
  user: testuser
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Target.URL != "wss://echo.example.com/stream" {
		t.Errorf("Target.URL = %q, want %q", cfg.Target.URL, "wss://echo.example.com/stream")
	}
	if cfg.Target.Backend != "coder" {
		t.Errorf("Target.Backend = %q, want %q", cfg.Target.Backend, "coder")
	}
	if cfg.Socket.HandshakeTimeout != 3*time.Second {
		t.Errorf("Socket.HandshakeTimeout = %v, want %v", cfg.Socket.HandshakeTimeout, 3*time.Second)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
target:
  url: ws://localhost:8080
database:
  host: localhost
  name: test_db
  user: testuser
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
target:
  url: ws://localhost:8080
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Target.Backend != DefaultBackend {
		t.Errorf("Target.Backend = %q, want default %q", cfg.Target.Backend, DefaultBackend)
	}
	if cfg.Socket.HandshakeTimeout != DefaultHandshakeTimeout {
		t.Errorf("Socket.HandshakeTimeout = %v, want default %v", cfg.Socket.HandshakeTimeout, DefaultHandshakeTimeout)
	}
	if cfg.Socket.ReadLimit != DefaultReadLimit {
		t.Errorf("Socket.ReadLimit = %d, want default %d", cfg.Socket.ReadLimit, DefaultReadLimit)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Recorder.BatchSize != DefaultBatchSize {
		t.Errorf("Recorder.BatchSize = %d, want default %d", cfg.Recorder.BatchSize, DefaultBatchSize)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Logging.Level, DefaultLogLevel)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{
			Target: TargetConfig{URL: "ws://localhost:8080"},
		}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing target url",
			mutate:  func(c *Config) { c.Target.URL = "" },
			wantErr: "target.url is required",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Target.Backend = "gobwas" },
			wantErr: `target.backend must be gorilla or coder, got "gobwas"`,
		},
		{
			name:    "ping timeout below interval",
			mutate:  func(c *Config) { c.Socket.PingTimeout = c.Socket.PingInterval },
			wantErr: "socket.ping_timeout must exceed socket.ping_interval",
		},
		{
			name: "recorder without database host",
			mutate: func(c *Config) {
				c.Recorder.Enabled = true
			},
			wantErr: "database.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Recorder.Enabled = true
				c.Database.Host = "localhost"
				c.Database.Name = "db"
				c.Database.User = "user"
				c.Database.Password = "pass"
				c.Database.MaxConns = 5
				c.Database.MinConns = 10
			},
			wantErr: "database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: `logging.level must be debug, info, warn, or error, got "trace"`,
		},
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
