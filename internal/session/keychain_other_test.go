//go:build !darwin

package session

import (
	"os"
	"testing"
)

// The non-darwin secret store is a JSON file under XDG_DATA_HOME, so the
// whole round trip can run against a temp dir.
func TestKeychainStore_RoundTrip(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	s := NewKeychainStore()

	if got := s.Get(); got != "" {
		t.Errorf("Get() before Set = %q, want \"\"", got)
	}

	if err := s.Set("secret-token"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get(); got != "secret-token" {
		t.Errorf("Get() = %q, want %q", got, "secret-token")
	}

	// Overwrite replaces, never appends.
	if err := s.Set("second-token"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get(); got != "second-token" {
		t.Errorf("Get() = %q, want %q", got, "second-token")
	}

	s.Clear()
	if got := s.Get(); got != "" {
		t.Errorf("Get() after Clear = %q, want \"\"", got)
	}
}

func TestKeychainStore_SecretsFileMode(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	s := NewKeychainStore()
	if err := s.Set("tok"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	info, err := os.Stat(secretsFilePath())
	if err != nil {
		t.Fatalf("stat secrets file: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("secrets file mode = %o, want 600", mode)
	}
}

func TestKeychainStore_ClearMissingFileIsNoop(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	s := NewKeychainStore()
	s.Clear() // must not panic or create the file

	if _, err := os.Stat(secretsFilePath()); !os.IsNotExist(err) {
		t.Errorf("secrets file should not exist after Clear on empty store")
	}
}
