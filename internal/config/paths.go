package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultDataDir holds crash logs when nothing else is configured.
const DefaultDataDir = ".advisor"

// GetDataDir returns the directory for crash logs and other local state.
// Resolution order (first match wins):
// 1. Explicit config via "data_dir" (Viper/env/flag)
// 2. XDG_DATA_HOME/advisor (if XDG_DATA_HOME is set)
// 3. ./.advisor
func GetDataDir() string {
	if path := viper.GetString("data_dir"); path != "" {
		return path
	}
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "advisor")
	}
	return DefaultDataDir
}
