package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // .hcl file or directory

	LogFormat   string
	LogLevel    string
	MetricsPort int
	WorkerCount int
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 0 {
		return nil, errors.New("WorkerCount cannot be negative")
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return nil, errors.New("MetricsPort must be in the range 0-65535")
	}
	return &cfg, nil
}
