// Package config reads runtime settings from PLAYCZ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	gap "github.com/muesli/go-app-paths"
)

const Prefix = "PLAYCZ_"

type Config struct {
	BaseURL   string        `env:"API_URL" envDefault:"https://api.play.cz/json/"`
	UserAgent string        `env:"USER_AGENT"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// CacheDir defaults to the user cache directory.
	CacheDir string `env:"CACHE_DIR"`
	// zstd level, 0 stores entries uncompressed
	CacheCompression int  `env:"CACHE_COMPRESSION" envDefault:"3"`
	NoDiskCache      bool `env:"NO_DISK_CACHE"`

	Language string `env:"LANG" envDefault:"en"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	TTL TTLs `envPrefix:"TTL_"`
}

type TTLs struct {
	Stations    time.Duration `env:"STATIONS" envDefault:"24h"`
	TopStations time.Duration `env:"TOP_STATIONS" envDefault:"5m"`
	Genres      time.Duration `env:"GENRES" envDefault:"168h"`
	Regions     time.Duration `env:"REGIONS" envDefault:"168h"`
	Streams     time.Duration `env:"STREAMS" envDefault:"24h"`
	StreamURL   time.Duration `env:"STREAM_URL" envDefault:"24h"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return load(env.Options{Prefix: Prefix})
}

// LoadFrom parses environ instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return load(env.Options{Prefix: Prefix, Environment: environ})
}

func load(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	if cfg.CacheDir == "" {
		dir, err := DefaultCacheDir()
		if err != nil {
			return Config{}, err
		}
		cfg.CacheDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultCacheDir is the per-user cache directory for playcz.
func DefaultCacheDir() (string, error) {
	dir, err := gap.NewScope(gap.User, "playcz").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return dir, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("api url must not be empty"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.CacheCompression < 0 || c.CacheCompression > 22 {
		errs = append(errs, fmt.Errorf("cache compression must be between 0 and 22, got %d", c.CacheCompression))
	}
	for name, ttl := range map[string]time.Duration{
		"stations":     c.TTL.Stations,
		"top stations": c.TTL.TopStations,
		"genres":       c.TTL.Genres,
		"regions":      c.TTL.Regions,
		"streams":      c.TTL.Streams,
		"stream url":   c.TTL.StreamURL,
	} {
		if ttl <= 0 {
			errs = append(errs, fmt.Errorf("%s ttl must be positive, got %s", name, ttl))
		}
	}
	return errors.Join(errs...)
}
