package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/feature-tools-mcp/internal/config"
	"github.com/ironsheep/feature-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("feature-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("feature-tools-mcp - MCP server for keypoint detection and matching")
			fmt.Println()
			fmt.Println("Usage: feature-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Printf("  %s=debug          Log level (trace, debug, info, warn, error)\n", config.EnvLogLevel)
			fmt.Printf("  %s=json          Log format (text or json)\n", config.EnvLogFormat)
			fmt.Printf("  %s=1048576  Largest accepted request line\n", config.EnvMaxRequestBytes)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client.")
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "feature-tools-mcp: %v\n", err)
		os.Exit(2)
	}
	cfg.ConfigureLogging()

	if Version != "dev" {
		server.Version = Version
	}
	log.WithFields(log.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"commit":     GitCommit,
	}).Debug("Feature MCP server starting")

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.WithError(err).Fatal("Server error")
	}
}
