package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/eshaffer321/energysplit/internal/domain/validator"
	"github.com/eshaffer321/energysplit/internal/infrastructure/config"
	"github.com/eshaffer321/energysplit/internal/infrastructure/logging"
	"github.com/eshaffer321/energysplit/internal/infrastructure/storage"
)

// RunCalculate allocates the bills of a working set file and prints the
// result to w. With -save the result is also stored.
func RunCalculate(ctx context.Context, cfg *config.Config, flags *CalculateFlags, w io.Writer) error {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	// stdout carries the result; logs go to stderr
	logger := logging.NewLoggerTo(os.Stderr, loggingCfg).With("system", "calculate")

	if flags.Input == "" {
		return errors.New("no working set file given (use -input)")
	}

	ws, err := LoadWorkingSet(flags.Input)
	if err != nil {
		return err
	}
	logger.Debug("working set loaded",
		"path", flags.Input,
		"groups", len(ws.Groups),
		"categories", len(ws.Categories),
		"registry", len(ws.Registry),
	)

	asm, err := NewAssembler(cfg, flags.Policy)
	if err != nil {
		return err
	}

	result, err := asm.AssembleAll(ws.Inputs(), ws.Groups)
	if err != nil {
		return fmt.Errorf("calculation failed: %w", err)
	}
	result.CompanyInfo = ws.Company.Clone()

	failures := validator.ValidateResult(result)
	for _, v := range failures {
		logger.Warn("allocation out of tolerance", "category", v.Category, "reason", v.Reason)
	}

	if flags.Save {
		store, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer func() { _ = store.Close() }()

		if err := store.SaveResult(ctx, result); err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		logger.Info("calculation stored", "calculation_id", result.ID, "driver", cfg.Storage.Driver)
	}

	if flags.JSON {
		return PrintJSON(w, result)
	}

	PrintHeader(w, result, string(asm.Policy()))
	PrintResult(w, result, ws.Registry, cfg)
	PrintValidation(w, failures)
	return nil
}
