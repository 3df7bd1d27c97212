// Package config loads service configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Lastfm   LastfmConfig   `mapstructure:"lastfm"`
	Spotify  SpotifyConfig  `mapstructure:"spotify"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// LastfmConfig holds the metadata API credentials.
type LastfmConfig struct {
	APIKey string `mapstructure:"apiKey"`
}

// SpotifyConfig holds the streaming-provider OAuth application credentials.
type SpotifyConfig struct {
	ClientID     string `mapstructure:"clientId"`
	ClientSecret string `mapstructure:"clientSecret"`
	RedirectURL  string `mapstructure:"redirectUrl"`
}

// CacheConfig holds the in-process query cache settings. SizeMB of zero
// disables the cache.
type CacheConfig struct {
	SizeMB int           `mapstructure:"sizeMb"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. A config file is optional; environment variables
// (VINYLOG_*) override file values, and sensible defaults cover everything
// except the credentials.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("cache.sizeMb", 16)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("spotify.redirectUrl", "http://127.0.0.1:8080/api/spotify/callback")

	v.BindEnv("server.addr", "VINYLOG_ADDR")
	v.BindEnv("database.url", "VINYLOG_DATABASE_URL")
	v.BindEnv("lastfm.apiKey", "VINYLOG_LASTFM_API_KEY")
	v.BindEnv("spotify.clientId", "VINYLOG_SPOTIFY_CLIENT_ID")
	v.BindEnv("spotify.clientSecret", "VINYLOG_SPOTIFY_CLIENT_SECRET")
	v.BindEnv("spotify.redirectUrl", "VINYLOG_SPOTIFY_REDIRECT_URL")
	v.BindEnv("cache.sizeMb", "VINYLOG_CACHE_SIZE_MB")
	v.BindEnv("cache.ttl", "VINYLOG_CACHE_TTL")
	v.BindEnv("logger.level", "VINYLOG_LOG_LEVEL")
	v.BindEnv("logger.format", "VINYLOG_LOG_FORMAT")

	if path != "" {
		filename := filepath.Base(path)
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("database url is required (VINYLOG_DATABASE_URL)")
	}
	if c.Lastfm.APIKey == "" {
		return errors.New("last.fm api key is required (VINYLOG_LASTFM_API_KEY)")
	}
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return errors.New("spotify client credentials are required (VINYLOG_SPOTIFY_CLIENT_ID, VINYLOG_SPOTIFY_CLIENT_SECRET)")
	}
	return nil
}
