// Package version holds build-time version information.
package version

// Set via -ldflags at build time, e.g.
//
//	go build -ldflags "-X printlayout/internal/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	// Version is the semantic version of the application.
	Version = "0.1.0"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"

	// GitCommit is the short git commit hash.
	GitCommit = "unknown"
)
