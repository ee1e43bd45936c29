package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	internal "github.com/ZanzyTHEbar/callindex/cidx"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Data  DataConfig  `mapstructure:"data"`
	Log   LogConfig   `mapstructure:"log"`
	Query QueryConfig `mapstructure:"query"`
}

// DataConfig locates the input files.
type DataConfig struct {
	SwitchesFile string `mapstructure:"switchesFile" validate:"required"`
	RecordsFile  string `mapstructure:"recordsFile" validate:"required"`
}

// LogConfig stores logging options.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
}

// QueryConfig stores options applied when answering queries.
type QueryConfig struct {
	TimeLayout     string `mapstructure:"timeLayout" validate:"required"`
	ValidateOnLoad bool   `mapstructure:"validateOnLoad"`
}

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
// Environment variables use the CIDX_ prefix with dots replaced by
// underscores, e.g. CIDX_DATA_RECORDSFILE.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("data.switchesFile", internal.DefaultSwitchesFile)
	v.SetDefault("data.recordsFile", internal.DefaultRecordsFile)
	v.SetDefault("log.level", internal.DefaultLogLevel)
	v.SetDefault("query.timeLayout", internal.DefaultTimeLayout)
	v.SetDefault("query.validateOnLoad", false)

	v.SetEnvPrefix(internal.DefaultAppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file in the search path; defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return &cfg, nil
}

// Validate checks required fields and the log level name.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
