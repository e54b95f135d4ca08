// Package config handles configuration loading and management for Navi.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AgentConfig describes how to reach the agent backend.
type AgentConfig struct {
	// URL is the websocket endpoint of the agent event channel.
	URL string `yaml:"url"`
	// DefaultModel is used for sessions that don't select a model explicitly.
	DefaultModel string `yaml:"default_model"`
	// DefaultProject is the project id assigned to sessions created without one.
	DefaultProject string `yaml:"default_project"`
}

// ReconnectConfig bounds the connect retry window.
type ReconnectConfig struct {
	// MaxRetries is the number of dial attempts after the first failure.
	MaxRetries uint64 `yaml:"max_retries"`
	// InitialInterval is the first backoff interval.
	InitialInterval time.Duration `yaml:"initial_interval"`
	// MaxInterval caps the backoff interval.
	MaxInterval time.Duration `yaml:"max_interval"`
	// MaxElapsed caps the total time spent retrying. Zero means no cap.
	MaxElapsed time.Duration `yaml:"max_elapsed"`
}

// UntilDoneConfig holds defaults for the autonomous continuation loop.
type UntilDoneConfig struct {
	// MaxIterations is the default iteration cap when a caller enables the
	// loop without one.
	MaxIterations int `yaml:"max_iterations"`
	// ContinuePrompt is the implicit prompt resubmitted on each iteration.
	ContinuePrompt string `yaml:"continue_prompt"`
}

// MitigationConfig tunes context-overflow handling.
type MitigationConfig struct {
	// ContinuationPrompt is the single fixed prompt resubmitted after an
	// automatic prune.
	ContinuationPrompt string `yaml:"continuation_prompt"`
	// CompactPrompt is sent as an ordinary query to request backend-side
	// compaction.
	CompactPrompt string `yaml:"compact_prompt"`
}

// StorageConfig tunes session persistence.
type StorageConfig struct {
	// DataDir overrides the platform-default sessions directory.
	DataDir string `yaml:"data_dir"`
	// ArchivedRetention deletes archived sessions older than this. Zero
	// keeps them forever.
	ArchivedRetention time.Duration `yaml:"archived_retention"`
}

// LogConfig tunes logging output.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	JSON       bool   `yaml:"json"`
}

// Config represents the complete Navi configuration.
type Config struct {
	Agent      AgentConfig      `yaml:"agent"`
	Reconnect  ReconnectConfig  `yaml:"reconnect"`
	UntilDone  UntilDoneConfig  `yaml:"until_done"`
	Mitigation MitigationConfig `yaml:"mitigation"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			URL:            "ws://127.0.0.1:8391/events",
			DefaultProject: "default",
		},
		Reconnect: ReconnectConfig{
			MaxRetries:      5,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     10 * time.Second,
			MaxElapsed:      time.Minute,
		},
		UntilDone: UntilDoneConfig{
			MaxIterations:  10,
			ContinuePrompt: "Continue with the task.",
		},
		Mitigation: MitigationConfig{
			ContinuationPrompt: "Older tool output was trimmed to free context. Continue from where you left off.",
			CompactPrompt:      "/compact",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML configuration file and merges it over the defaults.
// A missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that could not work.
func (c *Config) Validate() error {
	if c.Agent.URL == "" {
		return fmt.Errorf("agent.url must not be empty")
	}
	if c.UntilDone.MaxIterations < 1 {
		return fmt.Errorf("until_done.max_iterations must be at least 1, got %d", c.UntilDone.MaxIterations)
	}
	if c.Reconnect.InitialInterval < 0 || c.Reconnect.MaxInterval < 0 || c.Reconnect.MaxElapsed < 0 {
		return fmt.Errorf("reconnect intervals must not be negative")
	}
	return nil
}
