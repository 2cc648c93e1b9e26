package session

import (
	"log/slog"
)

const (
	keychainService = "snapregister"
	keychainAccount = "api_token"
)

// KeychainStore keeps the bearer token in the platform secret store.
// On macOS that is the Keychain (via the `security` CLI); elsewhere it is a
// 0600 JSON secrets file under $XDG_DATA_HOME.
type KeychainStore struct {
	service string
	account string
	logger  *slog.Logger
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{
		service: keychainService,
		account: keychainAccount,
		logger:  slog.Default(),
	}
}

func (k *KeychainStore) Get() string {
	token, err := keychainGet(k.service, k.account)
	if err != nil {
		// Absence and read failure look the same to callers; the request
		// simply goes out unauthenticated.
		k.logger.Debug("token not available in secret store", "error", err)
		return ""
	}
	return token
}

func (k *KeychainStore) Set(token string) error {
	return keychainSet(k.service, k.account, token)
}

func (k *KeychainStore) Clear() {
	if err := keychainDelete(k.service, k.account); err != nil {
		k.logger.Debug("clearing token from secret store", "error", err)
	}
}
