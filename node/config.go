// Package node wires together the storage layer, the apply pipeline and
// the sync driver into a single runnable process.
package node

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every knob the junostate node binary exposes, loaded from a
// config file, environment variables (JUNOSTATE_ prefix) and flags, in that
// increasing order of precedence.
type Config struct {
	// DatabasePath is the directory badger persists node records under.
	DatabasePath string `mapstructure:"db-path"`

	// LogLevel is one of debug/info/warn/error.
	LogLevel string `mapstructure:"log-level"`

	// MaxWorkers bounds the per-block contract-trie worker fan-out.
	MaxWorkers int64 `mapstructure:"max-workers"`

	// VerifyHashes is decoded from configuration, but New does not pass it
	// on: the pipeline builds its tries without hash verification whatever
	// its value.
	VerifyHashes bool `mapstructure:"verify-hashes"`

	// StartBlock is decoded from configuration; neither Driver.Run nor
	// HandleReorg reads it, and Run always resumes after the highest block
	// the database recorded.
	StartBlock uint64 `mapstructure:"start-block"`
}

// defaults mirror the zero-config experience: an on-disk database next to
// the binary, info logging, and a worker pool sized for a modest machine.
func defaults() Config {
	return Config{
		DatabasePath: "junostate-data",
		LogLevel:     "info",
		MaxWorkers:   8,
		VerifyHashes: false,
		StartBlock:   0,
	}
}

// Load reads configuration from cfgFile (if non-empty), environment
// variables prefixed JUNOSTATE_, and whatever flags v already has bound,
// layering over the package defaults.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	cfg := defaults()
	v.SetDefault("db-path", cfg.DatabasePath)
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("max-workers", cfg.MaxWorkers)
	v.SetDefault("verify-hashes", cfg.VerifyHashes)
	v.SetDefault("start-block", cfg.StartBlock)

	v.SetEnvPrefix("junostate")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}
