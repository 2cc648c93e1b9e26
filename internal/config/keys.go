package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "api.environment", typ: kString, env: "SNAPREGISTER_ENVIRONMENT",
		apply:   func(cfg *Config, v any) { cfg.API.Environment = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Environment },
	},
	{
		key: "api.base_url", typ: kString, env: "SNAPREGISTER_API_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.API.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.API.BaseURL },
	},
	{
		key: "api.timeout_ms", typ: kInt, env: "SNAPREGISTER_API_TIMEOUT_MS",
		apply:   func(cfg *Config, v any) { cfg.API.TimeoutMS = v.(int) },
		extract: func(cfg Config) any { return cfg.API.TimeoutMS },
	},
	{
		key: "retry.max_attempts", typ: kInt, env: "SNAPREGISTER_RETRY_MAX_ATTEMPTS",
		apply:   func(cfg *Config, v any) { cfg.Retry.MaxAttempts = v.(int) },
		extract: func(cfg Config) any { return cfg.Retry.MaxAttempts },
	},
	{
		key: "retry.base_delay_ms", typ: kInt, env: "SNAPREGISTER_RETRY_BASE_DELAY_MS",
		apply:   func(cfg *Config, v any) { cfg.Retry.BaseDelayMS = v.(int) },
		extract: func(cfg Config) any { return cfg.Retry.BaseDelayMS },
	},
	{
		key: "retry.backoff_factor", typ: kFloat, env: "SNAPREGISTER_RETRY_BACKOFF_FACTOR",
		apply:   func(cfg *Config, v any) { cfg.Retry.BackoffFactor = v.(float64) },
		extract: func(cfg Config) any { return cfg.Retry.BackoffFactor },
	},
	{
		key: "image.max_dimension", typ: kInt, env: "SNAPREGISTER_IMAGE_MAX_DIMENSION",
		apply:   func(cfg *Config, v any) { cfg.Image.MaxDimension = v.(int) },
		extract: func(cfg Config) any { return cfg.Image.MaxDimension },
	},
	{
		key: "image.quality", typ: kFloat, env: "SNAPREGISTER_IMAGE_QUALITY",
		apply:   func(cfg *Config, v any) { cfg.Image.Quality = v.(float64) },
		extract: func(cfg Config) any { return cfg.Image.Quality },
	},
	{
		key: "image.max_upload_bytes", typ: kInt, env: "SNAPREGISTER_IMAGE_MAX_UPLOAD_BYTES",
		apply:   func(cfg *Config, v any) { cfg.Image.MaxUploadBytes = int64(v.(int)) },
		extract: func(cfg Config) any { return cfg.Image.MaxUploadBytes },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SNAPREGISTER_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "SNAPREGISTER_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
