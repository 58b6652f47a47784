package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/eshaffer321/energysplit/internal/cli"
)

func main() {
	_ = godotenv.Load()

	flags, err := cli.ParseCalculateFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := cli.LoadConfig(flags.ConfigPath, logger)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if err := cli.RunCalculate(context.Background(), cfg, flags, os.Stdout); err != nil {
		logger.Error("Calculation failed", "error", err)
		os.Exit(1)
	}
}
