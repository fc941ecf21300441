// Package secrets stores the auth middleware's Bearer token verification
// secret in the OS keychain, so it is not config- or environment-visible
// plaintext on disk.
// file: internal/secrets/keyring.go
package secrets

import (
	"github.com/cockroachdb/errors"
	"github.com/zalando/go-keyring"

	"github.com/dkoosis/mcpkit/internal/logging"
)

const (
	keyringService = "mcpkit"
	keyringAccount = "bearer-verification-secret"
)

// Store wraps the OS keychain for the one secret the auth middleware
// needs: the HMAC key used to verify inbound Bearer tokens.
type Store struct {
	logger logging.Logger
}

// NewStore constructs a Store.
func NewStore(logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &Store{logger: logger.WithField("component", "secrets_store")}
}

// Load retrieves the verification secret. A missing entry returns ("",
// nil): the caller decides whether that's fatal (e.g. auth middleware
// disabled) or not.
func (s *Store) Load() (string, error) {
	secret, err := keyring.Get(keyringService, keyringAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", errors.Wrap(err, "failed to load verification secret from system keyring")
	}
	return secret, nil
}

// Save writes the verification secret to the OS keychain.
func (s *Store) Save(secret string) error {
	if secret == "" {
		return errors.New("cannot save an empty verification secret")
	}
	if err := keyring.Set(keyringService, keyringAccount, secret); err != nil {
		return errors.Wrap(err, "failed to save verification secret to system keyring")
	}
	s.logger.Info("verification secret saved to system keyring")
	return nil
}

// Delete removes the stored secret, if any.
func (s *Store) Delete() error {
	if err := keyring.Delete(keyringService, keyringAccount); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "failed to delete verification secret from system keyring")
	}
	return nil
}
