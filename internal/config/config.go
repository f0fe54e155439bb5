// Package config loads process settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Log holds the logger settings shared by every command.
type Log struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	Format    string `env:"LOG_FORMAT" envDefault:"text"`
	AddSource bool   `env:"LOG_ADD_SOURCE" envDefault:"true"`
}

// Export holds defaults for scene-export. Flags take precedence.
type Export struct {
	OutputDir   string `env:"SCENE_EXPORT_DIR" envDefault:"."`
	Format      string `env:"SCENE_EXPORT_FORMAT" envDefault:"json"`
	Parallelism int    `env:"SCENE_EXPORT_PARALLELISM" envDefault:"4"`
	MetricsAddr string `env:"SCENE_METRICS_ADDR"`
}

// Preview holds defaults for route-preview.
type Preview struct {
	FPS         float64 `env:"SCENE_PREVIEW_FPS" envDefault:"60"`
	MetricsAddr string  `env:"SCENE_METRICS_ADDR"`
}

// LoadLog parses Log from the environment.
func LoadLog() (Log, error) {
	var cfg Log
	err := ParseEnv(&cfg)
	return cfg, err
}

// LoadExport parses Export from the environment and clamps the parallelism
// to at least one worker.
func LoadExport() (Export, error) {
	var cfg Export
	if err := ParseEnv(&cfg); err != nil {
		return Export{}, err
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	return cfg, nil
}

// LoadPreview parses Preview from the environment.
func LoadPreview() (Preview, error) {
	var cfg Preview
	err := ParseEnv(&cfg)
	return cfg, err
}
