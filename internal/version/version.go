// Package version reports the build version of the season engine binaries.
// Release builds set it with ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/season-engine/internal/version.Version=v0.3.0" ./cmd/season-server
package version

// Version is "dev" unless overridden at build time.
var Version = "dev"

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}
