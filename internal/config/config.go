package config

import (
	"fmt"
	"time"
)

type Config struct {
	API     APIConfig
	Retry   RetryConfig
	Image   ImageConfig
	Storage StorageConfig
	Log     LogConfig
}

type APIConfig struct {
	Environment string
	BaseURL     string
	TimeoutMS   int
}

type RetryConfig struct {
	MaxAttempts   int
	BaseDelayMS   int
	BackoffFactor float64
}

type ImageConfig struct {
	MaxDimension   int
	Quality        float64
	MaxUploadBytes int64
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

// envBaseURLs maps an environment name to the backend it talks to. An
// explicit api.base_url overrides the mapping.
var envBaseURLs = map[string]string{
	"development": "http://localhost:8080/api",
	"staging":     "https://staging-api.snapregister.com/api",
	"production":  "https://api.snapregister.com/api",
}

func defaults() Config {
	return Config{
		API: APIConfig{
			Environment: "development",
			TimeoutMS:   30000,
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			BaseDelayMS:   1000,
			BackoffFactor: 2.0,
		},
		Image: ImageConfig{
			MaxDimension:   1920,
			Quality:        0.8,
			MaxUploadBytes: 10 << 20,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Timeout returns the request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// BaseDelay returns the first retry delay as a duration.
func (c RetryConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMS) * time.Millisecond
}

// Load reads configuration from the platform-native backend and environment
// variables.
//
// On macOS the backend is UserDefaults (domain: com.snapregister.cli). On
// other platforms it is a JSON file at $XDG_CONFIG_HOME/snapregister/config.json.
// Environment variables (SNAPREGISTER_*) override backend values everywhere.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.API.BaseURL == "" {
		url, ok := envBaseURLs[cfg.API.Environment]
		if !ok {
			return Config{}, fmt.Errorf("unknown environment %q (expected development, staging, or production)", cfg.API.Environment)
		}
		cfg.API.BaseURL = url
	}

	if cfg.API.TimeoutMS <= 0 {
		return Config{}, fmt.Errorf("api.timeout_ms must be positive, got %d", cfg.API.TimeoutMS)
	}
	if cfg.Retry.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("retry.max_attempts must be at least 1, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BackoffFactor <= 1 {
		return Config{}, fmt.Errorf("retry.backoff_factor must be greater than 1, got %v", cfg.Retry.BackoffFactor)
	}
	if cfg.Image.Quality <= 0 || cfg.Image.Quality > 1 {
		return Config{}, fmt.Errorf("image.quality must be in (0, 1], got %v", cfg.Image.Quality)
	}

	return cfg, nil
}
