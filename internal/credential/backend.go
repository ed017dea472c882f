package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/labelrun/labelrun/pkg/provider"
	"github.com/zalando/go-keyring"
)

// Backend persists encrypted credential blobs keyed by provider id.
// Backends never see plaintext secrets.
type Backend interface {
	// Name identifies the backend in logs ("sqlite", "keyring", "memory").
	Name() string

	Put(ctx context.Context, providerID, blob string) error
	// Fetch returns ok=false when no blob is stored for the id.
	Fetch(ctx context.Context, providerID string) (blob string, ok bool, err error)
	Delete(ctx context.Context, providerID string) error
	Clear(ctx context.Context) error
}

// ============================================================================
// SQLite backend
// ============================================================================

// SQLiteBackend stores blobs in the credentials table.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend creates a backend over an opened database.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) Put(ctx context.Context, providerID, blob string) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO credentials (provider_id, blob) VALUES (?, ?)
		ON CONFLICT (provider_id) DO UPDATE
		SET blob = excluded.blob,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		providerID, blob)
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Fetch(ctx context.Context, providerID string) (string, bool, error) {
	var blob string
	err := b.db.QueryRowContext(ctx,
		`SELECT blob FROM credentials WHERE provider_id = ?`, providerID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fetch credential: %w", err)
	}
	return blob, true, nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, providerID string) error {
	if _, err := b.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE provider_id = ?`, providerID); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Clear(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// ============================================================================
// OS keyring backend
// ============================================================================

const keyringService = "labelrun"

// KeyringBackend stores blobs in the operating system keychain.
type KeyringBackend struct{}

// NewKeyringBackend creates a keychain-backed store.
func NewKeyringBackend() *KeyringBackend {
	return &KeyringBackend{}
}

func (b *KeyringBackend) Name() string { return "keyring" }

func (b *KeyringBackend) Put(ctx context.Context, providerID, blob string) error {
	if err := keyring.Set(keyringService, providerID, blob); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

func (b *KeyringBackend) Fetch(ctx context.Context, providerID string) (string, bool, error) {
	blob, err := keyring.Get(keyringService, providerID)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("keyring get: %w", err)
	}
	return blob, true, nil
}

func (b *KeyringBackend) Delete(ctx context.Context, providerID string) error {
	err := keyring.Delete(keyringService, providerID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}

func (b *KeyringBackend) Clear(ctx context.Context) error {
	for _, id := range provider.CatalogIDs() {
		if err := b.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// In-memory backend (degraded mode)
// ============================================================================

// MemoryBackend keeps blobs in process memory only. Used when no
// persistent medium is configured; the wiring layer logs this
// degradation explicitly.
type MemoryBackend struct {
	mu    sync.RWMutex
	blobs map[string]string
}

// NewMemoryBackend creates an empty in-memory store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string]string)}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Put(ctx context.Context, providerID, blob string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[providerID] = blob
	return nil
}

func (b *MemoryBackend) Fetch(ctx context.Context, providerID string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	blob, ok := b.blobs[providerID]
	return blob, ok, nil
}

func (b *MemoryBackend) Delete(ctx context.Context, providerID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, providerID)
	return nil
}

func (b *MemoryBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs = make(map[string]string)
	return nil
}
