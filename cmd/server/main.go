package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/tickguard/internal/infrastructure/config"
	"github.com/GriffinCanCode/tickguard/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override environment
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "HTTP port")
	flag.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "HTTP host")
	flag.IntVar(&cfg.Pipeline.Workers, "workers", cfg.Pipeline.Workers, "Number of worker engines")
	flag.DurationVar(&cfg.Pipeline.TickInterval, "tick", cfg.Pipeline.TickInterval, "Tick interval")
	flag.StringVar(&cfg.Pipeline.WatchlistPath, "watchlist", cfg.Pipeline.WatchlistPath, "Watchlist file (.yaml, .toml or .json)")
	flag.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "Development mode (console logs)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		os.Exit(1)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		srv.Close()
		os.Exit(1)
	}
}
