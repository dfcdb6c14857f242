// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// Environment variable names.
const (
	EnvLogLevel        = "FEATURE_MCP_LOG_LEVEL"
	EnvLogFormat       = "FEATURE_MCP_LOG_FORMAT"
	EnvMaxRequestBytes = "FEATURE_MCP_MAX_REQUEST_BYTES"
)

// Config holds the server settings.
type Config struct {
	LogLevel  log.Level
	LogFormat string

	// MaxRequestBytes bounds a single JSON-RPC request line.
	MaxRequestBytes int
}

// Default returns the settings used when no environment variable is set.
func Default() Config {
	return Config{
		LogLevel:        log.InfoLevel,
		LogFormat:       "text",
		MaxRequestBytes: 1024 * 1024,
	}
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Default()

	level, err := log.ParseLevel(getEnv(EnvLogLevel, cfg.LogLevel.String()))
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	cfg.LogLevel = level

	switch format := getEnv(EnvLogFormat, cfg.LogFormat); format {
	case "text", "json":
		cfg.LogFormat = format
	default:
		return cfg, fmt.Errorf("%s: unknown format %q (want text or json)", EnvLogFormat, format)
	}

	if v := os.Getenv(EnvMaxRequestBytes); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvMaxRequestBytes, err)
		}
		if n < 4096 {
			return cfg, fmt.Errorf("%s: %d is below the 4096 byte minimum", EnvMaxRequestBytes, n)
		}
		cfg.MaxRequestBytes = n
	}

	return cfg, nil
}

// ConfigureLogging applies the level and format to the standard logrus
// logger. Output always goes to stderr since stdout carries the protocol.
func (c Config) ConfigureLogging() {
	log.SetOutput(os.Stderr)
	log.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
