// Package session holds the per-process authentication state: the bearer
// token in a platform secret store and the cookie jar backing cookie-based
// session continuity. The state is injected into the HTTP client rather than
// living in package-level variables, so tests and concurrent sessions each
// get their own copy.
package session

import "sync"

// TokenStore persists the single bearer token for the active account.
// Writing replaces any previous value; there is never more than one token.
type TokenStore interface {
	// Get returns the stored token, or "" when absent. Storage failures are
	// logged and reported as absence.
	Get() string
	// Set persists the token, replacing any previous value.
	Set(token string) error
	// Clear deletes the token. Best-effort: failures are logged, not returned.
	Clear()
}

// MemoryStore is an in-process TokenStore used by tests and short-lived
// sessions that should not touch the platform secret store.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemoryStore) Set(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
}
