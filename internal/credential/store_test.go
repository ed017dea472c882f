package credential_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/labelrun/labelrun/internal/credential"
	"github.com/labelrun/labelrun/pkg/provider"
)

func newStore(t *testing.T) (*credential.Store, *credential.MemoryBackend) {
	t.Helper()
	cipher, err := credential.NewCipher("test-encryption-key")
	require.NoError(t, err)
	backend := credential.NewMemoryBackend()
	return credential.New(backend, cipher, otelzap.New(zap.NewNop())), backend
}

func TestStore_SaveGet(t *testing.T) {
	store, backend := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "easypost", "secret123"))

	secret, ok, err := store.Get(ctx, "easypost")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "secret123", secret)

	// Stored blob must be ciphertext, not the secret.
	blob, ok, err := backend.Fetch(ctx, "easypost")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, blob, "secret123")
}

func TestStore_LastWriteWins(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "shippo", "old-key"))
	require.NoError(t, store.Save(ctx, "shippo", "new-key"))

	secret, ok, err := store.Get(ctx, "shippo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new-key", secret)
}

func TestStore_UnknownProvider(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	err := store.Save(ctx, "fedex", "secret123")
	assert.True(t, errors.Is(err, provider.ErrUnknownProvider))

	_, _, err = store.Get(ctx, "fedex")
	assert.True(t, errors.Is(err, provider.ErrUnknownProvider))

	err = store.Clear(ctx, "fedex")
	assert.True(t, errors.Is(err, provider.ErrUnknownProvider))
}

func TestStore_GetAbsent(t *testing.T) {
	store, _ := newStore(t)

	_, ok, err := store.Get(context.Background(), "stamps")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CorruptBlobTreatedAsAbsent(t *testing.T) {
	store, backend := newStore(t)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "easypost", "not-a-valid-blob"))

	secret, ok, err := store.Get(ctx, "easypost")
	require.NoError(t, err, "decryption failure must not be fatal")
	assert.False(t, ok)
	assert.Empty(t, secret)
}

func TestStore_NotifiesRegistry(t *testing.T) {
	store, _ := newStore(t)
	registry := provider.NewRegistry()
	store.SetNotifier(registry)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "easypost", "secret123"))
	configured, err := registry.IsConfigured("easypost")
	require.NoError(t, err)
	assert.True(t, configured)

	require.NoError(t, store.Clear(ctx, "easypost"))
	configured, err = registry.IsConfigured("easypost")
	require.NoError(t, err)
	assert.False(t, configured)
}

func TestStore_ClearAll(t *testing.T) {
	store, _ := newStore(t)
	registry := provider.NewRegistry()
	store.SetNotifier(registry)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "easypost", "ep_key"))
	require.NoError(t, store.Save(ctx, "shippo", "sh_key"))

	require.NoError(t, store.ClearAll(ctx))

	for _, id := range []string{"easypost", "shippo"} {
		_, ok, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok, id)

		configured, err := registry.IsConfigured(id)
		require.NoError(t, err)
		assert.False(t, configured, id)
	}
}

func TestStore_KeyFunc(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	key := store.KeyFunc("easypost")

	_, err := key(ctx)
	assert.True(t, errors.Is(err, provider.ErrCredentialNotFound))

	require.NoError(t, store.Save(ctx, "easypost", "secret123"))
	secret, err := key(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secret123", secret)
}
