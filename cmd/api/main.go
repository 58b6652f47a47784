package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/eshaffer321/energysplit/internal/cli"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	flags, err := cli.ParseServeFlags(os.Args[1:])
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

	gin.SetMode(gin.ReleaseMode)

	if err := cli.RunServe(context.Background(), cfg, flags); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
