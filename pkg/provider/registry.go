package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Descriptor describes one integrable shipping provider. Descriptors
// are defined at process start and never destroyed; only Configured
// mutates, tracking whether a credential is stored for the id.
type Descriptor struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Features           []string `json:"features"`
	CredentialRequired bool     `json:"credential_required"`
	Configured         bool     `json:"configured"`
}

// catalog is the static set of supported providers. Order is
// significant: it fixes registry iteration order, which makes
// cheapest-rate tie-breaking deterministic.
var catalog = []Descriptor{
	{
		ID:                 "easypost",
		Name:               "EasyPost",
		Features:           []string{"Address Validation", "Rate Comparison", "Label Generation", "Tracking"},
		CredentialRequired: true,
	},
	{
		ID:                 "pirateship",
		Name:               "PirateShip",
		Features:           []string{"USPS Integration", "Rate Comparison", "Label Generation", "Tracking"},
		CredentialRequired: true,
	},
	{
		ID:                 "stamps",
		Name:               "Stamps.com",
		Features:           []string{"USPS Integration", "Label Generation", "Tracking"},
		CredentialRequired: true,
	},
	{
		ID:                 "shippo",
		Name:               "Shippo",
		Features:           []string{"Multi-carrier Support", "Rate Comparison", "Label Generation", "Tracking"},
		CredentialRequired: true,
	},
}

// KnownID reports whether id is in the static catalog.
func KnownID(id string) bool {
	for _, d := range catalog {
		if d.ID == id {
			return true
		}
	}
	return false
}

// CatalogIDs returns the catalog's provider ids in iteration order.
func CatalogIDs() []string {
	ids := make([]string, len(catalog))
	for i, d := range catalog {
		ids[i] = d.ID
	}
	return ids
}

// CredentialReader is the narrow view of the credential store the
// registry needs: the stored secret for a provider, or ok=false when
// none is configured.
type CredentialReader interface {
	Get(ctx context.Context, providerID string) (secret string, ok bool, err error)
}

// Registry is the single source of truth for which providers exist and
// whether each is usable. Clients are resolved once at wiring time, not
// re-dispatched per call.
type Registry struct {
	mu          sync.RWMutex
	order       []string
	descriptors map[string]*Descriptor
	clients     map[string]Client
}

// NewRegistry creates a registry seeded from the static catalog.
func NewRegistry() *Registry {
	r := &Registry{
		order:       make([]string, 0, len(catalog)),
		descriptors: make(map[string]*Descriptor, len(catalog)),
		clients:     make(map[string]Client, len(catalog)),
	}
	for _, d := range catalog {
		d := d
		r.order = append(r.order, d.ID)
		r.descriptors[d.ID] = &d
	}
	return r
}

// RegisterClient binds the resolved client for a catalog provider.
func (r *Registry) RegisterClient(c Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.descriptors[c.ID()]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, c.ID())
	}
	r.clients[c.ID()] = c
	return nil
}

// Client returns the resolved client for a provider id.
func (r *Registry) Client(id string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	return c, nil
}

// List returns a snapshot of the full catalog with current configured
// flags, in catalog order. No side effects.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.descriptors[id])
	}
	return out
}

// IsConfigured reports whether a credential is stored for the provider.
func (r *Registry) IsConfigured(id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	return d.Configured, nil
}

// MarkConfigured sets the derived configured flag. Called by the
// credential store after a successful save or clear.
func (r *Registry) MarkConfigured(id string, configured bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.descriptors[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	d.Configured = configured
	return nil
}

// ClearConfigured resets every provider's configured flag to false.
func (r *Registry) ClearConfigured() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.descriptors {
		d.Configured = false
	}
}

// ConfiguredIDs returns the ids of providers that are configured and
// have a resolved client, in catalog order.
func (r *Registry) ConfiguredIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if r.descriptors[id].Configured {
			if _, ok := r.clients[id]; ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Init performs the startup pass over the catalog, flipping configured
// for every provider with a stored credential. Failures for one
// provider are isolated: they are logged and the flag stays false.
func (r *Registry) Init(ctx context.Context, creds CredentialReader, logger *otelzap.Logger) {
	for _, id := range CatalogIDs() {
		_, ok, err := creds.Get(ctx, id)
		if err != nil {
			logger.Warn("Skipping provider during registry init",
				zap.String("provider", id),
				zap.Error(err),
			)
			continue
		}
		if ok {
			// Known id; MarkConfigured cannot fail here.
			_ = r.MarkConfigured(id, true)
		}
	}
}
