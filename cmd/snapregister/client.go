package main

import (
	"fmt"

	"github.com/snapregister/snapregister/internal/api"
	"github.com/snapregister/snapregister/internal/config"
	"github.com/snapregister/snapregister/internal/session"
)

// newClient builds the shared API client from config and the platform token
// store. A var so tests can point commands at a local server.
var newClient = func() (*api.Client, *session.Session, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	sess, err := session.New(session.NewKeychainStore())
	if err != nil {
		return nil, nil, config.Config{}, fmt.Errorf("creating session: %w", err)
	}

	client := api.New(cfg.API.BaseURL, sess, sess.Tokens, &api.Options{
		Timeout:       cfg.API.Timeout(),
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay(),
		BackoffFactor: cfg.Retry.BackoffFactor,
	})
	return client, sess, cfg, nil
}
