package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds runner and server settings. Values come from an optional
// config file, STEPCI_* environment variables and built-in defaults, in
// that order of precedence.
type Config struct {
	Listen             string `mapstructure:"listen"`
	LogsDir            string `mapstructure:"logs_dir"`
	Shell              string `mapstructure:"shell"`
	StepTimeoutSeconds int    `mapstructure:"step_timeout_seconds"`
}

// Load reads configuration. An empty configPath searches the working
// directory for stepci.yaml; a missing file is fine, defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("stepci")
		v.AddConfigPath(".")
	}

	v.SetDefault("listen", ":8080")
	v.SetDefault("logs_dir", "./logs")
	v.SetDefault("shell", "sh")
	v.SetDefault("step_timeout_seconds", 300)

	v.SetEnvPrefix("STEPCI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// no config file found, defaults apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
