package config

import (
	"fmt"

	"github.com/OFFIS-RIT/flowgen/internal/util"
	"github.com/OFFIS-RIT/flowgen/pkg/flow"

	"github.com/go-playground/validator"
)

// Config is the application configuration for running the pipeline.
type Config struct {
	Debug     bool
	LogFormat string `validate:"oneof=text json logfmt"`

	MinContentLength                int      `validate:"gte=0"`
	MinExternalServiceContentLength int      `validate:"gte=0"`
	KnownExternalServiceNames       []string `validate:"dive,required"`

	MaxRepairAttempts int `validate:"min=1,max=10"`
	RepairWindow      int `validate:"min=8,max=4096"`
	Parallel          int `validate:"min=1,max=256"`
	MaxGenerations    int `validate:"min=1,max=10"`
}

// Load reads the configuration from the environment, falling back to the
// pipeline defaults, and validates it.
func Load() (*Config, error) {
	defaults := flow.DefaultSemanticRules()

	cfg := &Config{
		Debug:     util.GetEnvBool("DEBUG", false),
		LogFormat: util.GetEnvString("LOG_FORMAT", "text"),

		MinContentLength:                util.GetEnvInt("FLOW_MIN_CONTENT_LENGTH", defaults.MinContentLength),
		MinExternalServiceContentLength: util.GetEnvInt("FLOW_MIN_EXTERNAL_CONTENT_LENGTH", defaults.MinExternalServiceContentLength),
		KnownExternalServiceNames:       util.GetEnvList("FLOW_KNOWN_SERVICES", defaults.KnownExternalServiceNames),

		MaxRepairAttempts: util.GetEnvInt("FLOW_MAX_REPAIR_ATTEMPTS", flow.DefaultMaxAttempts),
		RepairWindow:      util.GetEnvInt("FLOW_REPAIR_WINDOW", flow.DefaultWindowRadius),
		Parallel:          util.GetEnvInt("FLOW_PARALLEL", 4),
		MaxGenerations:    util.GetEnvInt("FLOW_MAX_GENERATIONS", 3),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Rules returns the semantic rules described by the configuration.
func (c *Config) Rules() flow.SemanticRules {
	return flow.SemanticRules{
		MinContentLength:                c.MinContentLength,
		MinExternalServiceContentLength: c.MinExternalServiceContentLength,
		KnownExternalServiceNames:       c.KnownExternalServiceNames,
	}
}

// PipelineParams returns the parameters for flow.NewPipeline.
func (c *Config) PipelineParams() flow.NewPipelineParams {
	return flow.NewPipelineParams{
		Rules:        c.Rules(),
		MaxAttempts:  c.MaxRepairAttempts,
		WindowRadius: c.RepairWindow,
		Parallel:     c.Parallel,
	}
}

// GenerateOptions returns the options for flow.Pipeline.Generate.
func (c *Config) GenerateOptions(strict bool) flow.GenerateOptions {
	return flow.GenerateOptions{
		MaxGenerations: c.MaxGenerations,
		Strict:         strict,
	}
}
