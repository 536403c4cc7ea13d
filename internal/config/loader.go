package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".semdiff"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for semdiff settings.
const envPrefix = "SEMDIFF"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Defaults for Config fields, per spec §6.
const (
	DefaultWhitespaceMode      = "language_aware"
	DefaultImpactFilter        = "All"
	DefaultSimilarityThreshold = 0.8
	DefaultMoveThreshold       = 1
	DefaultConcurrencyLimit    = 8
	DefaultPerFileTimeoutMS    = 30000
	DefaultRenderFormat        = "json"
	DefaultServiceName         = "semdiff"
	DefaultLogLevel            = "info"
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("diff.whitespace_mode", DefaultWhitespaceMode)
	viperCfg.SetDefault("diff.impact_filter", DefaultImpactFilter)
	viperCfg.SetDefault("diff.similarity_threshold", DefaultSimilarityThreshold)
	viperCfg.SetDefault("diff.move_threshold", DefaultMoveThreshold)
	viperCfg.SetDefault("diff.include_non_impactful", true)
	viperCfg.SetDefault("diff.include_formatting", false)
	viperCfg.SetDefault("diff.include_content", false)

	viperCfg.SetDefault("driver.concurrency_limit", DefaultConcurrencyLimit)
	viperCfg.SetDefault("driver.per_file_timeout_ms", DefaultPerFileTimeoutMS)
	viperCfg.SetDefault("driver.recursive", true)

	viperCfg.SetDefault("filter.include_globs", []string{})
	viperCfg.SetDefault("filter.exclude_globs", []string{})

	viperCfg.SetDefault("render.format", DefaultRenderFormat)
	viperCfg.SetDefault("render.schema_check", false)

	viperCfg.SetDefault("observability.service_name", DefaultServiceName)
	viperCfg.SetDefault("observability.log_level", DefaultLogLevel)
}
