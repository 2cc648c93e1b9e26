// Package auth wraps the account endpoints and keeps the session's token
// store in sync with login state.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snapregister/snapregister/internal/api"
	"github.com/snapregister/snapregister/internal/session"
)

// User is the account profile returned by the auth endpoints.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type authResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Service performs login, signup, and logout against the backend.
type Service struct {
	client  *api.Client
	session *session.Session
	logger  *slog.Logger
}

func NewService(client *api.Client, sess *session.Session) *Service {
	return &Service{client: client, session: sess, logger: slog.Default()}
}

// Login exchanges credentials for a bearer token and persists it. The call
// itself never sends a stale Authorization header.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	return s.authenticate(ctx, "/auth/login", credentials{Email: email, Password: password})
}

// Signup registers a new account and persists the returned token.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*User, error) {
	return s.authenticate(ctx, "/auth/signup", credentials{Name: name, Email: email, Password: password})
}

func (s *Service) authenticate(ctx context.Context, path string, creds credentials) (*User, error) {
	resp, err := s.client.Post(ctx, path, creds, &api.RequestConfig{SkipAuth: true})
	if err != nil {
		return nil, err
	}

	var ar authResponse
	if err := resp.Decode(&ar); err != nil {
		return nil, err
	}
	if ar.Token == "" {
		return nil, fmt.Errorf("auth response missing token")
	}

	if err := s.session.Tokens.Set(ar.Token); err != nil {
		return nil, fmt.Errorf("storing token: %w", err)
	}
	return ar.User, nil
}

// Me returns the profile for the current token.
func (s *Service) Me(ctx context.Context) (*User, error) {
	resp, err := s.client.Get(ctx, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var u User
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout tells the server to invalidate the session, then clears local
// state. The network call is best-effort: local state is dropped even when
// the server is unreachable.
func (s *Service) Logout(ctx context.Context) {
	if _, err := s.client.Post(ctx, "/auth/logout", nil, &api.RequestConfig{NoRetry: true}); err != nil {
		s.logger.Debug("logout request failed, clearing local session anyway", "error", err)
	}
	s.session.Reset()
}
