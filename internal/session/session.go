package session

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// Session bundles the bearer token store with the cookie jar that carries
// the server's session cookie between requests. The HTTP client reads both
// on every call; a 401 response resets the whole session as a side effect.
//
// Session implements http.CookieJar by delegating to an inner jar, so it can
// be installed directly on an http.Client and still drop every cookie on
// Reset without rebuilding the client.
type Session struct {
	Tokens TokenStore

	mu  sync.Mutex
	jar *cookiejar.Jar
}

// New creates a Session backed by the given token store.
func New(tokens TokenStore) (*Session, error) {
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	return &Session{Tokens: tokens, jar: jar}, nil
}

func newJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return jar, nil
}

// SetCookies implements http.CookieJar.
func (s *Session) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.Lock()
	jar := s.jar
	s.mu.Unlock()
	jar.SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (s *Session) Cookies(u *url.URL) []*http.Cookie {
	s.mu.Lock()
	jar := s.jar
	s.mu.Unlock()
	return jar.Cookies(u)
}

// Reset clears the bearer token and drops all session cookies. Called on
// logout and whenever the server answers 401.
func (s *Session) Reset() {
	s.Tokens.Clear()

	// cookiejar has no clear operation; swap in a fresh jar.
	if jar, err := newJar(); err == nil {
		s.mu.Lock()
		s.jar = jar
		s.mu.Unlock()
	}
}
