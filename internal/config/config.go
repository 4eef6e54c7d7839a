package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// SerialConfig describes the transceiver connection.
type SerialConfig struct {
	Port string `mapstructure:"port"`
}

// MetricsConfig describes the prometheus endpoint.
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
	Path   string `mapstructure:"path"`
}

// LoggingConfig describes log level and output format.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// DeviceConfig pairs a sender id with the EEP profile used to decode its
// telegrams, e.g. id "05:11:72:F7" profile "A5-04-01".
type DeviceConfig struct {
	ID      string `mapstructure:"id"`
	Profile string `mapstructure:"profile"`
}

// Config is the top-level enoceanctl configuration.
type Config struct {
	Serial  SerialConfig   `mapstructure:"serial"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	Logging LoggingConfig  `mapstructure:"logging"`
	Devices []DeviceConfig `mapstructure:"devices"`
}

// Load reads the configuration from an optional YAML/TOML/JSON file and the
// environment. Environment variables use the ENOCEAN_ prefix with dots
// replaced by underscores, e.g. ENOCEAN_SERIAL_PORT.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/enocean")
		v.SetConfigName("enocean")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix("ENOCEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Running without a config file is fine, defaults and environment
		// variables apply.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.port", "/dev/ttyUSB0")

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.addr", ":9666")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}
