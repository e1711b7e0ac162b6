package database

import (
	"fmt"
	"net/url"

	"github.com/akrylov/wsproxy/internal/config"
)

// TranscriptDSN builds the connection URL for the transcript store. The
// password is URL-escaped so credentials with reserved characters survive
// the round trip through pgx's URL parser.
func TranscriptDSN(cfg config.DBConfig) string {
	mode := cfg.SSLMode
	if mode == "" {
		// prefer matches libpq's default and keeps local dev painless.
		mode = "prefer"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, url.QueryEscape(cfg.Password), cfg.Host, cfg.Port, cfg.Name, mode)
}
