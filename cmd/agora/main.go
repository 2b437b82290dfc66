// Package main provides the agora ledger command line.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/opencivics/agora/internal/platform/config"
	"github.com/opencivics/agora/internal/platform/otel"
	"github.com/opencivics/agora/internal/tools/agoracli"
)

func main() {
	cfg, err := agoracli.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	shutdown, err := otel.Setup(ctx, "agora")
	if err != nil {
		config.Exitf("Error: otel setup: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			config.Exitf("Error: otel shutdown: %v", err)
		}
	}()

	if err := agoracli.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
