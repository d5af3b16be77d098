package config

import "flag"

var (
	flagConfig          = flag.String("config", "", "Path to config file")
	flagDebug           = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers         = flag.Int("workers", 0, "Concurrent resolve tasks")
	flagBase            = flag.String("base", "", "Directory or URL that relative URIs resolve against")
	flagNoUint32Indices = flag.Bool("no-uint32-indices", false, "Target a device without 32-bit index support")
	flagMips            = flag.Bool("mips", false, "Generate mip chains for decoded images")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWorkers > 0 {
		cfg.Loader.Workers = *flagWorkers
	}
	if *flagBase != "" {
		cfg.Loader.BaseDir = *flagBase
	}
	if *flagNoUint32Indices {
		cfg.Device.Uint32Indices = false
	}
	if *flagMips {
		cfg.Loader.GenerateMips = true
	}
}
