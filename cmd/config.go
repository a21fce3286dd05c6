package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agrisense/advisor/internal/config"
	"github.com/agrisense/advisor/internal/logger"
)

const (
	configName = ".advisor"
	envPrefix  = "ADVISOR"
)

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix) // e.g., ADVISOR_ENGINE_ALPHA
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			LogError("no config file found, using defaults and environment", nil)
		default:
			PrintError(fmt.Sprintf("Error reading config file %s", viper.ConfigFileUsed()), err)
		}
		return
	}
	LogError("using config file "+viper.ConfigFileUsed(), nil)
}

// loadConfig loads and validates the typed configuration and points the
// crash handler at the data dir.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	logger.SetBasePath(cfg.DataDir)
	logger.SetVersion(GetVersion())
	return cfg, nil
}
