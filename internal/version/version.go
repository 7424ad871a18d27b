// Package version centralizes the version string stamped into the binary.
package version

// Version can be overridden at build time:
//
//	go build -ldflags "-X github.com/bazhenov/tindex/internal/version.Version=v0.3.0"
var Version = "0.2.0-dev"
