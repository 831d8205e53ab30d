// Package config manages application configuration from files and environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Workbook struct {
		DefaultSheet string `mapstructure:"default_sheet"`
	} `mapstructure:"workbook"`
	Output struct {
		Format string `mapstructure:"format"`
		Color  bool   `mapstructure:"color"`
	} `mapstructure:"output"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Audit struct {
		Enabled bool   `mapstructure:"enabled"`
		File    string `mapstructure:"file"`
	} `mapstructure:"audit"`
	Shell struct {
		History string `mapstructure:"history"`
	} `mapstructure:"shell"`
}

// Load reads the configuration from ~/.xlkit/config.yaml and XLKIT_*
// environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir())

	setDefaults()

	viper.SetEnvPrefix("XLKIT")
	viper.SetEnvKeyReplacer(envReplacer)
	viper.AutomaticEnv()

	// A missing config file is not an error.
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	dir := configDir()
	viper.SetDefault("workbook.default_sheet", "Sheet1")
	viper.SetDefault("output.format", "text")
	viper.SetDefault("output.color", true)
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("audit.enabled", false)
	viper.SetDefault("audit.file", filepath.Join(dir, "audit.log"))
	viper.SetDefault("shell.history", filepath.Join(dir, "shell_history"))
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xlkit"
	}
	return filepath.Join(home, ".xlkit")
}
