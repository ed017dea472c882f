package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/labelrun/labelrun/pkg/provider"
	"github.com/labelrun/labelrun/pkg/provider/mock"
)

func nopLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

func TestRegistry_List_CatalogOrder(t *testing.T) {
	registry := provider.NewRegistry()

	descriptors := registry.List()
	require.Len(t, descriptors, 4)

	ids := make([]string, len(descriptors))
	for i, d := range descriptors {
		ids[i] = d.ID
		assert.False(t, d.Configured, "%s should start unconfigured", d.ID)
		assert.True(t, d.CredentialRequired)
		assert.NotEmpty(t, d.Name)
		assert.NotEmpty(t, d.Features)
	}
	assert.Equal(t, []string{"easypost", "pirateship", "stamps", "shippo"}, ids)
}

func TestRegistry_RegisterClient_Unknown(t *testing.T) {
	registry := provider.NewRegistry()

	err := registry.RegisterClient(mock.New("fedex", 1.0))
	assert.True(t, errors.Is(err, provider.ErrUnknownProvider))

	_, err = registry.Client("fedex")
	assert.True(t, errors.Is(err, provider.ErrUnknownProvider))
}

func TestRegistry_RegisterClient(t *testing.T) {
	registry := provider.NewRegistry()

	require.NoError(t, registry.RegisterClient(mock.New("easypost", 9.99)))

	c, err := registry.Client("easypost")
	require.NoError(t, err)
	assert.Equal(t, "easypost", c.ID())
}

func TestRegistry_MarkConfigured(t *testing.T) {
	registry := provider.NewRegistry()

	require.NoError(t, registry.MarkConfigured("shippo", true))
	configured, err := registry.IsConfigured("shippo")
	require.NoError(t, err)
	assert.True(t, configured)

	require.NoError(t, registry.MarkConfigured("shippo", false))
	configured, err = registry.IsConfigured("shippo")
	require.NoError(t, err)
	assert.False(t, configured)

	err = registry.MarkConfigured("fedex", true)
	assert.True(t, errors.Is(err, provider.ErrUnknownProvider))
}

func TestRegistry_ConfiguredIDs_RequiresClient(t *testing.T) {
	registry := provider.NewRegistry()

	// Configured but no client: not usable.
	require.NoError(t, registry.MarkConfigured("easypost", true))
	assert.Empty(t, registry.ConfiguredIDs())

	// Client but not configured: not usable either.
	require.NoError(t, registry.RegisterClient(mock.New("stamps", 5.00)))
	assert.Empty(t, registry.ConfiguredIDs())

	require.NoError(t, registry.RegisterClient(mock.New("easypost", 9.99)))
	require.NoError(t, registry.MarkConfigured("stamps", true))
	assert.Equal(t, []string{"easypost", "stamps"}, registry.ConfiguredIDs())
}

func TestRegistry_ClearConfigured(t *testing.T) {
	registry := provider.NewRegistry()
	require.NoError(t, registry.MarkConfigured("easypost", true))
	require.NoError(t, registry.MarkConfigured("shippo", true))

	registry.ClearConfigured()

	for _, d := range registry.List() {
		assert.False(t, d.Configured, d.ID)
	}
}

// staticCreds is a CredentialReader backed by a plain map.
type staticCreds struct {
	secrets map[string]string
	errIDs  map[string]error
}

func (s *staticCreds) Get(ctx context.Context, providerID string) (string, bool, error) {
	if err, ok := s.errIDs[providerID]; ok {
		return "", false, err
	}
	secret, ok := s.secrets[providerID]
	return secret, ok, nil
}

func TestRegistry_Init(t *testing.T) {
	registry := provider.NewRegistry()

	registry.Init(context.Background(), &staticCreds{
		secrets: map[string]string{"easypost": "ep_key", "shippo": "sh_key"},
	}, nopLogger())

	for _, d := range registry.List() {
		want := d.ID == "easypost" || d.ID == "shippo"
		assert.Equal(t, want, d.Configured, d.ID)
	}
}

func TestRegistry_Init_FailureIsolated(t *testing.T) {
	registry := provider.NewRegistry()

	// One provider's backend read fails; the others still initialize.
	registry.Init(context.Background(), &staticCreds{
		secrets: map[string]string{"stamps": "st_key"},
		errIDs:  map[string]error{"easypost": errors.New("backend unavailable")},
	}, nopLogger())

	configured, err := registry.IsConfigured("stamps")
	require.NoError(t, err)
	assert.True(t, configured)

	configured, err = registry.IsConfigured("easypost")
	require.NoError(t, err)
	assert.False(t, configured)
}
