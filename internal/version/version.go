// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/akrylov/wsproxy/internal/version.Version=1.0.0 \
//	                   -X github.com/akrylov/wsproxy/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/akrylov/wsproxy/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

var (
	// Version is the semantic version, "dev" for unflagged builds.
	Version = "dev"

	// Commit is the short git commit hash.
	Commit = "unknown"

	// BuildTime is the UTC build timestamp in ISO 8601.
	BuildTime = "unknown"
)

// String returns a single-line version description.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}
