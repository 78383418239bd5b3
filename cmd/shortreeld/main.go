// Command shortreeld runs the shortreel daemon in the foreground without the
// CLI command tree, for service managers and containers.
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"shortreel/internal/config"
	"shortreel/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	logLevel := flag.String("log-level", "", "Override logging.level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	err = daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("shortreeld: %v", err)
	}
}
