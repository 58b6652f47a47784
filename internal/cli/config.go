package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/eshaffer321/energysplit/internal/domain/assembler"
	"github.com/eshaffer321/energysplit/internal/infrastructure/config"
)

// LoadConfig loads configPath, or the first config.yaml/config.yml found in
// the working directory, falling back to environment variables when neither
// exists. The result is validated.
func LoadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath == "" {
		for _, candidate := range []string{"config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
	}

	var cfg *config.Config
	if configPath == "" {
		logger.Debug("no config file found, using environment variables")
		cfg = config.LoadFromEnv()
	} else {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// NewAssembler builds an assembler for the configured shared counter
// policy. A non-empty override wins over the config.
func NewAssembler(cfg *config.Config, override string) (*assembler.Assembler, error) {
	name := cfg.Allocation.SharedCounterPolicy
	if override != "" {
		name = override
	}
	policy, err := assembler.ParsePolicy(name)
	if err != nil {
		return nil, err
	}
	return assembler.New(assembler.WithPolicy(policy)), nil
}
