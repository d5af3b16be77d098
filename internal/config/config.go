// Package config handles loader configuration loading and management.
package config

import "time"

// Config holds all loader settings.
type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Device  DeviceConfig  `yaml:"device"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoaderConfig holds asset pipeline settings.
type LoaderConfig struct {
	// Workers is the maximum number of concurrent resolve tasks.
	Workers int `yaml:"workers"`
	// QueueSize is the pending task buffer of the worker pool.
	QueueSize int `yaml:"queue_size"`
	// FetchTimeout bounds each remote request.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	// BaseDir is the directory or URL that relative URIs resolve against.
	BaseDir string `yaml:"base_dir"`
	// FlipVGenerators lists asset.generator prefixes whose texture coordinates need a V flip.
	FlipVGenerators []string `yaml:"flip_v_generators"`
	GenerateMips    bool     `yaml:"generate_mips"`
}

// DeviceConfig describes the capabilities of the target device.
type DeviceConfig struct {
	Uint32Indices bool `yaml:"uint32_indices"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			Workers:         4,
			QueueSize:       64,
			FetchTimeout:    30 * time.Second,
			BaseDir:         "",
			FlipVGenerators: []string{"PlayCanvas"},
			GenerateMips:    false,
		},
		Device: DeviceConfig{
			Uint32Indices: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
