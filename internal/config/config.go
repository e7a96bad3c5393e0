// Package config loads application configuration: defaults, an optional
// YAML config file, and PREVIEW_PKG_* environment overrides, in that
// order of precedence (lowest to highest).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/BlankParticle/preview-pkg/pkg/logger"
)

// Config is the full application configuration shared by the CLI and the
// server subcommand.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
	Github GithubConfig `mapstructure:"github"`
}

// ServerConfig configures the registry server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
}

// ClientConfig configures the publishing CLI.
type ClientConfig struct {
	RegistryURL string `mapstructure:"registry_url"`
}

// GithubConfig identifies the OAuth app used for device-flow login.
type GithubConfig struct {
	ClientID string   `mapstructure:"client_id"`
	Scopes   []string `mapstructure:"scopes"`
}

// Load reads configuration. A .env file in the working directory is
// applied first (server deployments ship one); an explicit configPath
// overrides the default search locations.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()

	v.SetDefault("server.port", 8787)
	v.SetDefault("server.data_dir", defaultDataDir())
	v.SetDefault("server.log_level", "info")
	v.SetDefault("client.registry_url", "http://localhost:8787")
	v.SetDefault("github.client_id", "")
	v.SetDefault("github.scopes", []string{"read:user"})

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, "preview-pkg"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PREVIEW_PKG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "preview-pkg")
	}
	return "./data"
}
