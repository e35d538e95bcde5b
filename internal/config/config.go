// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"time"
)

// Config holds all application settings.
type Config struct {
	App         AppConfig        `yaml:"app"`
	Transitions TransitionConfig `yaml:"transitions"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Logging     LoggingConfig    `yaml:"logging"`
}

// AppConfig holds stage and frame clock settings.
type AppConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	FrameRate int    `yaml:"frame_rate"`
	Debug     bool   `yaml:"debug"`
}

// TransitionConfig holds state machine settings.
type TransitionConfig struct {
	// QueueTimeout bounds how long a transition waits for an in-flight one
	// to finish. Zero waits forever.
	QueueTimeout time.Duration `yaml:"queue_timeout"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Title:     "gamey",
			Width:     1024,
			Height:    768,
			FrameRate: 60,
			Debug:     false,
		},
		Transitions: TransitionConfig{
			QueueTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports settings the application cannot run with.
func (c *Config) Validate() error {
	if c.App.Width <= 0 || c.App.Height <= 0 {
		return fmt.Errorf("invalid stage size %dx%d", c.App.Width, c.App.Height)
	}
	if c.App.FrameRate <= 0 {
		return fmt.Errorf("invalid frame rate %d", c.App.FrameRate)
	}
	if c.Transitions.QueueTimeout < 0 {
		return fmt.Errorf("negative transition queue timeout %v", c.Transitions.QueueTimeout)
	}
	return nil
}
