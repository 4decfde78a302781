// Package version holds the application version, set at build time.
package version

// Version is the application version. Overridden at release build time via
// -ldflags "-X github.com/jdewinter/Realized-Performance-Backend/internal/version.Version=v1.2.3".
var Version = "dev"
