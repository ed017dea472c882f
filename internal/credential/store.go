// Package credential implements encrypted at-rest storage of provider
// API keys with pluggable persistence backends.
package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/labelrun/labelrun/pkg/provider"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Notifier receives configured-flag updates after credential mutations.
// The provider registry implements it.
type Notifier interface {
	MarkConfigured(providerID string, configured bool) error
	ClearConfigured()
}

// Store persists provider credentials encrypted at rest. At most one
// credential exists per provider id; last write wins. Secrets are never
// logged in plaintext.
type Store struct {
	backend Backend
	cipher  *Cipher
	notify  Notifier
	logger  *otelzap.Logger
}

// New creates a credential store over the given backend and cipher.
func New(backend Backend, cipher *Cipher, logger *otelzap.Logger) *Store {
	return &Store{backend: backend, cipher: cipher, logger: logger}
}

// SetNotifier registers the registry to be told about configured-flag
// changes. Set once during wiring.
func (s *Store) SetNotifier(n Notifier) {
	s.notify = n
}

// Backend returns the name of the active persistence backend.
func (s *Store) Backend() string {
	return s.backend.Name()
}

// Save encrypts and persists a credential for a catalog provider, then
// flips the provider's configured flag.
func (s *Store) Save(ctx context.Context, providerID, secret string) error {
	if !provider.KnownID(providerID) {
		return fmt.Errorf("%w: %s", provider.ErrUnknownProvider, providerID)
	}

	blob, err := s.cipher.Encrypt(secret)
	if err != nil {
		return fmt.Errorf("encrypt credential for %s: %w", providerID, err)
	}
	if err := s.backend.Put(ctx, providerID, blob); err != nil {
		return err
	}

	s.logger.Info("Stored provider credential",
		zap.String("provider", providerID),
		zap.String("backend", s.backend.Name()),
	)
	if s.notify != nil {
		if err := s.notify.MarkConfigured(providerID, true); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the decrypted secret for a provider, or ok=false when
// none is configured. A blob that fails to decrypt is treated as
// absent: the failure is logged and the caller sees no credential.
func (s *Store) Get(ctx context.Context, providerID string) (string, bool, error) {
	if !provider.KnownID(providerID) {
		return "", false, fmt.Errorf("%w: %s", provider.ErrUnknownProvider, providerID)
	}

	blob, ok, err := s.backend.Fetch(ctx, providerID)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}

	secret, err := s.cipher.Decrypt(blob)
	if err != nil {
		if errors.Is(err, ErrDecryption) {
			s.logger.Warn("Credential blob undecryptable, treating as absent",
				zap.String("provider", providerID),
				zap.Error(err),
			)
			return "", false, nil
		}
		return "", false, err
	}
	return secret, true, nil
}

// KeyFunc returns a provider.KeyFunc bound to one provider id, for
// wiring into that provider's client.
func (s *Store) KeyFunc(providerID string) provider.KeyFunc {
	return func(ctx context.Context) (string, error) {
		secret, ok, err := s.Get(ctx, providerID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", provider.ErrCredentialNotFound, providerID)
		}
		return secret, nil
	}
}

// Clear removes the credential for one provider and resets its
// configured flag.
func (s *Store) Clear(ctx context.Context, providerID string) error {
	if !provider.KnownID(providerID) {
		return fmt.Errorf("%w: %s", provider.ErrUnknownProvider, providerID)
	}
	if err := s.backend.Delete(ctx, providerID); err != nil {
		return err
	}
	if s.notify != nil {
		if err := s.notify.MarkConfigured(providerID, false); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll wipes every stored credential and resets every provider's
// configured flag. Used for logout / account reset.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.backend.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("Cleared all provider credentials",
		zap.String("backend", s.backend.Name()),
	)
	if s.notify != nil {
		s.notify.ClearConfigured()
	}
	return nil
}
