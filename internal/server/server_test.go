package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/labelrun/labelrun/internal/credential"
	"github.com/labelrun/labelrun/internal/history"
	"github.com/labelrun/labelrun/internal/server"
	"github.com/labelrun/labelrun/internal/sqlite"
	"github.com/labelrun/labelrun/internal/telemetry"
	"github.com/labelrun/labelrun/pkg/provider"
	"github.com/labelrun/labelrun/pkg/provider/mock"
)

// Prometheus collectors register against the default registry, so they
// are created once for the whole test binary.
var testMetrics = telemetry.NewMetrics()

// stubClient lets a test control credential validation outcomes, which
// the shared mock always answers with "valid".
type stubClient struct {
	*mock.Client
	validateResult bool
	validateErr    error
}

func (s *stubClient) ValidateCredential(ctx context.Context, secret string) (bool, error) {
	if s.validateErr != nil {
		return false, s.validateErr
	}
	return s.validateResult, nil
}

type fixture struct {
	handler  http.Handler
	registry *provider.Registry
	store    *credential.Store
	log      *history.Log
}

func newFixture(t *testing.T, clients ...provider.Client) *fixture {
	t.Helper()
	logger := otelzap.New(zap.NewNop())

	registry := provider.NewRegistry()
	for _, c := range clients {
		require.NoError(t, registry.RegisterClient(c))
	}

	cipher, err := credential.NewCipher("test-encryption-key")
	require.NoError(t, err)
	store := credential.New(credential.NewMemoryBackend(), cipher, logger)
	store.SetNotifier(registry)

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := history.NewLog(db, 100)
	orch := provider.NewOrchestrator(registry, logger, 0)

	srv := server.New(server.Config{Port: 0}, registry, orch, store, log, testMetrics, logger)
	return &fixture{handler: srv.Handler(), registry: registry, store: store, log: log}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func shipmentBody() map[string]any {
	return map[string]any{
		"from": map[string]any{
			"name": "Acme Warehouse", "street": "100 Market St",
			"city": "San Francisco", "state": "CA", "zip": "94105",
		},
		"to": map[string]any{
			"name": "Jane Receiver", "street": "200 Broadway",
			"city": "New York", "state": "NY", "zip": "10038",
		},
		"weight": 16,
	}
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_ListProviders(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Providers []provider.Descriptor `json:"providers"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Providers, 4)
	assert.Equal(t, "easypost", resp.Providers[0].ID)
	assert.False(t, resp.Providers[0].Configured)
}

func TestServer_SaveCredential(t *testing.T) {
	f := newFixture(t, &stubClient{Client: mock.New("easypost", 9.99), validateResult: true})

	rec := f.do(t, http.MethodPut, "/api/providers/easypost/credential",
		map[string]string{"api_key": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	secret, ok, err := f.store.Get(context.Background(), "easypost")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "secret123", secret)

	configured, err := f.registry.IsConfigured("easypost")
	require.NoError(t, err)
	assert.True(t, configured)
}

func TestServer_SaveCredential_Rejected(t *testing.T) {
	f := newFixture(t, &stubClient{Client: mock.New("easypost", 9.99), validateResult: false})

	rec := f.do(t, http.MethodPut, "/api/providers/easypost/credential",
		map[string]string{"api_key": "wrong-key"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Stage string `json:"stage"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "validate", body.Stage)

	// A rejected key is never persisted.
	_, ok, err := f.store.Get(context.Background(), "easypost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServer_SaveCredential_ValidationCallFails(t *testing.T) {
	f := newFixture(t, &stubClient{
		Client:      mock.New("easypost", 9.99),
		validateErr: errors.New("connection refused"),
	})

	rec := f.do(t, http.MethodPut, "/api/providers/easypost/credential",
		map[string]string{"api_key": "secret123"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServer_SaveCredential_UnknownProvider(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/providers/fedex/credential",
		map[string]string{"api_key": "secret123"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_SaveCredential_MissingKey(t *testing.T) {
	f := newFixture(t, &stubClient{Client: mock.New("easypost", 9.99), validateResult: true})

	rec := f.do(t, http.MethodPut, "/api/providers/easypost/credential",
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ClearCredential(t *testing.T) {
	f := newFixture(t, &stubClient{Client: mock.New("easypost", 9.99), validateResult: true})

	rec := f.do(t, http.MethodPut, "/api/providers/easypost/credential",
		map[string]string{"api_key": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/providers/easypost/credential", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	configured, err := f.registry.IsConfigured("easypost")
	require.NoError(t, err)
	assert.False(t, configured)
}

func TestServer_ClearAllCredentials(t *testing.T) {
	f := newFixture(t,
		&stubClient{Client: mock.New("easypost", 9.99), validateResult: true},
		&stubClient{Client: mock.New("shippo", 8.50), validateResult: true},
	)
	for _, id := range []string{"easypost", "shippo"} {
		rec := f.do(t, http.MethodPut, fmt.Sprintf("/api/providers/%s/credential", id),
			map[string]string{"api_key": "secret123"})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.do(t, http.MethodDelete, "/api/credentials", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	for _, d := range f.registry.List() {
		assert.False(t, d.Configured, d.ID)
	}
}

func TestServer_GenerateLabel(t *testing.T) {
	f := newFixture(t,
		mock.New("easypost", 12.50),
		mock.New("pirateship", 9.99),
	)
	require.NoError(t, f.registry.MarkConfigured("easypost", true))
	require.NoError(t, f.registry.MarkConfigured("pirateship", true))

	rec := f.do(t, http.MethodPost, "/api/labels", shipmentBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Label     *provider.LabelResult `json:"label"`
		HistoryID string                `json:"history_id"`
		Warning   string                `json:"warning"`
	}
	decode(t, rec, &resp)
	require.NotNil(t, resp.Label)
	assert.Equal(t, "pirateship", resp.Label.Provider)
	assert.Equal(t, 9.99, resp.Label.Rate)
	assert.NotEmpty(t, resp.HistoryID)
	assert.Empty(t, resp.Warning)

	// The purchase landed in history.
	entries, err := f.log.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, resp.HistoryID, entries[0].ID)
	assert.Equal(t, "pirateship", entries[0].Provider)
	assert.Equal(t, "94105", entries[0].From.Zip)
}

func TestServer_GenerateLabel_ValidationFailure(t *testing.T) {
	f := newFixture(t, mock.New("easypost", 12.50))
	require.NoError(t, f.registry.MarkConfigured("easypost", true))

	body := shipmentBody()
	body["to"].(map[string]any)["zip"] = "bad"

	rec := f.do(t, http.MethodPost, "/api/labels", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp struct {
		Stage  string            `json:"stage"`
		Fields map[string]string `json:"fields"`
	}
	decode(t, rec, &errResp)
	assert.Equal(t, "validation", errResp.Stage)
	assert.Equal(t, "Invalid ZIP code", errResp.Fields["toZip"])
}

func TestServer_GenerateLabel_NoProviders(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/labels", shipmentBody())
	require.Equal(t, http.StatusConflict, rec.Code)

	var errResp struct {
		Stage string `json:"stage"`
	}
	decode(t, rec, &errResp)
	assert.Equal(t, "registry", errResp.Stage)
}

func TestServer_GenerateLabel_ProviderFailure(t *testing.T) {
	f := newFixture(t,
		mock.New("easypost", 12.50),
		mock.NewFailing("shippo", errors.New("rate limit exceeded")),
	)
	require.NoError(t, f.registry.MarkConfigured("easypost", true))
	require.NoError(t, f.registry.MarkConfigured("shippo", true))

	rec := f.do(t, http.MethodPost, "/api/labels", shipmentBody())
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var errResp struct {
		Stage    string `json:"stage"`
		Provider string `json:"provider"`
	}
	decode(t, rec, &errResp)
	assert.Equal(t, "provider", errResp.Stage)
	assert.Equal(t, "shippo", errResp.Provider)

	// A failed orchestration writes nothing to history.
	entries, err := f.log.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServer_History(t *testing.T) {
	f := newFixture(t, mock.New("easypost", 12.50))
	require.NoError(t, f.registry.MarkConfigured("easypost", true))

	for i := 0; i < 3; i++ {
		rec := f.do(t, http.MethodPost, "/api/labels", shipmentBody())
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []history.Entry `json:"entries"`
		Count   int             `json:"count"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 3, resp.Count)
	require.Len(t, resp.Entries, 3)

	// Search narrows by substring.
	rec = f.do(t, http.MethodGet, "/api/history?q=easypost", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, 3, resp.Count)

	rec = f.do(t, http.MethodGet, "/api/history?q=nomatch", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Entries, "empty result is [] not null")

	// Remove one entry.
	rec = f.do(t, http.MethodGet, "/api/history", nil)
	decode(t, rec, &resp)
	id := resp.Entries[0].ID

	rec = f.do(t, http.MethodDelete, "/api/history/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/history", nil)
	decode(t, rec, &resp)
	assert.Equal(t, 2, resp.Count)

	// Clear everything.
	rec = f.do(t, http.MethodDelete, "/api/history", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/history", nil)
	decode(t, rec, &resp)
	assert.Equal(t, 0, resp.Count)
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
