package config

import (
	"strings"
	"testing"
)

// mapBackend is an in-memory ConfigBackend for tests.
type mapBackend struct {
	strings map[string]string
	ints    map[string]int
}

func (m *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := m.strings[key]
	return v, ok, nil
}

func (m *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.ints[key]
	return v, ok, nil
}

func (m *mapBackend) SetString(key, val string) error {
	m.strings[key] = val
	return nil
}

func (m *mapBackend) SetInt(key string, val int) error {
	m.ints[key] = val
	return nil
}

func (m *mapBackend) Delete(key string) error {
	delete(m.strings, key)
	delete(m.ints, key)
	return nil
}

func emptyBackend() *mapBackend {
	return &mapBackend{strings: map[string]string{}, ints: map[string]int{}}
}

// clearEnv blanks every SNAPREGISTER_* override so backend/default values win.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(emptyBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.Environment != "development" {
		t.Errorf("API.Environment = %q, want %q", cfg.API.Environment, "development")
	}
	if cfg.API.BaseURL != "http://localhost:8080/api" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "http://localhost:8080/api")
	}
	if cfg.API.TimeoutMS != 30000 {
		t.Errorf("API.TimeoutMS = %d, want 30000", cfg.API.TimeoutMS)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BaseDelayMS != 1000 {
		t.Errorf("Retry.BaseDelayMS = %d, want 1000", cfg.Retry.BaseDelayMS)
	}
	if cfg.Retry.BackoffFactor != 2.0 {
		t.Errorf("Retry.BackoffFactor = %v, want 2.0", cfg.Retry.BackoffFactor)
	}
	if cfg.Image.MaxDimension != 1920 {
		t.Errorf("Image.MaxDimension = %d, want 1920", cfg.Image.MaxDimension)
	}
	if cfg.Image.Quality != 0.8 {
		t.Errorf("Image.Quality = %v, want 0.8", cfg.Image.Quality)
	}
	if cfg.Image.MaxUploadBytes != 10<<20 {
		t.Errorf("Image.MaxUploadBytes = %d, want %d", cfg.Image.MaxUploadBytes, 10<<20)
	}
}

func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := emptyBackend()
	b.strings["api.environment"] = "staging"
	b.ints["retry.max_attempts"] = 5
	b.strings["retry.backoff_factor"] = "1.5"

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://staging-api.snapregister.com/api" {
		t.Errorf("API.BaseURL = %q, want staging URL", cfg.API.BaseURL)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("Retry.MaxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BackoffFactor != 1.5 {
		t.Errorf("Retry.BackoffFactor = %v, want 1.5", cfg.Retry.BackoffFactor)
	}
}

func TestEnvOverride(t *testing.T) {
	clearEnv(t)

	b := emptyBackend()
	b.strings["api.base_url"] = "https://backend-value.example.com"
	t.Setenv("SNAPREGISTER_API_BASE_URL", "https://env-value.example.com")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://env-value.example.com" {
		t.Errorf("API.BaseURL = %q, want env value", cfg.API.BaseURL)
	}
}

func TestUnknownEnvironment(t *testing.T) {
	clearEnv(t)

	b := emptyBackend()
	b.strings["api.environment"] = "qa"

	_, err := loadWith(b)
	if err == nil {
		t.Fatal("expected error for unknown environment")
	}
	if !strings.Contains(err.Error(), "unknown environment") {
		t.Errorf("error = %q, want it to mention unknown environment", err)
	}
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		prep func(b *mapBackend)
		want string
	}{
		{
			name: "zero attempts",
			prep: func(b *mapBackend) { b.ints["retry.max_attempts"] = 0 },
			want: "retry.max_attempts",
		},
		{
			name: "backoff factor of one",
			prep: func(b *mapBackend) { b.strings["retry.backoff_factor"] = "1.0" },
			want: "retry.backoff_factor",
		},
		{
			name: "negative timeout",
			prep: func(b *mapBackend) { b.ints["api.timeout_ms"] = -1 },
			want: "api.timeout_ms",
		},
		{
			name: "quality above one",
			prep: func(b *mapBackend) { b.strings["image.quality"] = "1.2" },
			want: "image.quality",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			b := emptyBackend()
			tt.prep(b)

			_, err := loadWith(b)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestShowAll_CoversEverySpec(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(emptyBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	infos := ShowAll(cfg)
	if len(infos) != len(specs) {
		t.Fatalf("ShowAll returned %d entries, want %d", len(infos), len(specs))
	}
	for _, info := range infos {
		if info.Key == "" || info.EnvVar == "" {
			t.Errorf("entry %+v missing key or env var", info)
		}
	}
}
