// Package config provides configuration helpers for go-retarget commands.
//
// Pipeline stages never read the environment themselves; the CLI layer uses
// these helpers to fill explicit config structs that are passed down.
package config

import "os"

// Default pipeline configuration.
const (
	DefaultTargetFPS = 50.0
	DefaultRobot     = "x02"
	DefaultLogLevel  = "info"
)

// RegistryURL returns the registry endpoint from REGISTRY_URL.
// Empty means publishing is disabled.
func RegistryURL() string {
	return os.Getenv("REGISTRY_URL")
}

// RegistryBucket returns the GCS bucket from REGISTRY_BUCKET.
// Empty means GCS publishing is disabled.
func RegistryBucket() string {
	return os.Getenv("REGISTRY_BUCKET")
}

// PushgatewayURL returns the Prometheus pushgateway address from
// PUSHGATEWAY_URL. Empty means metrics are not pushed.
func PushgatewayURL() string {
	return os.Getenv("PUSHGATEWAY_URL")
}

// LogLevel returns the log level from LOG_LEVEL or the default.
func LogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return DefaultLogLevel
}
