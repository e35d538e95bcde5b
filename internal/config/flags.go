package config

import "github.com/spf13/pflag"

var (
	flags = pflag.NewFlagSet("gamey", pflag.ContinueOnError)

	flagConfig      = flags.String("config", "", "Path to config file")
	flagDebug       = flags.Bool("debug", false, "Enable debug mode and debug logging")
	flagWidth       = flags.Int("width", 0, "Stage width")
	flagHeight      = flags.Int("height", 0, "Stage height")
	flagFrameRate   = flags.Int("fps", 0, "Frame clock rate")
	flagMetricsAddr = flags.String("metrics-addr", "", "Serve Prometheus metrics on this address")
)

// Flags returns the flag set holding the config overrides, for mounting on a
// command's persistent flags.
func Flags() *pflag.FlagSet {
	return flags
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.App.Debug = true
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.App.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.App.Height = *flagHeight
	}
	if *flagFrameRate > 0 {
		cfg.App.FrameRate = *flagFrameRate
	}
	if *flagMetricsAddr != "" {
		cfg.Metrics.Addr = *flagMetricsAddr
	}
}
