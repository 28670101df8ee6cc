package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"schema-sync/internal/engine"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Active bool   `mapstructure:"active"`
}

// GetActiveDBConfig returns the currently active database configuration.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var activeConfig *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			activeConfig = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}

	return activeConfig, nil
}

// GetReconcileSettings reads the engine knobs with their documented defaults:
// enabled, a 3s lock wait, and a stable lock key.
func GetReconcileSettings() (bool, int64, time.Duration) {
	enabled := true
	if viper.IsSet("reconcile.enabled") {
		enabled = viper.GetBool("reconcile.enabled")
	}

	key := viper.GetInt64("reconcile.lock_key")
	if key == 0 {
		key = engine.DefaultLockKey
	}

	timeout := viper.GetDuration("reconcile.lock_timeout")
	if timeout <= 0 {
		timeout = engine.DefaultLockTimeout
	}

	return enabled, key, timeout
}
