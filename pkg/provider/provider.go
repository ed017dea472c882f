// Package provider implements the multi-provider rate-shopping core:
// the static provider catalog, per-provider label clients, and the
// orchestrator that fans a shipment out to every configured provider
// and keeps the cheapest label.
package provider

import (
	"context"
)

// Client defines the operations every shipping provider integration
// must implement.
type Client interface {
	// ID returns the provider identifier (e.g., "easypost", "shippo").
	ID() string

	// GenerateLabel purchases a shipping label for the given shipment.
	GenerateLabel(ctx context.Context, req *ShipmentRequest) (*LabelResult, error)

	// ValidateCredential checks whether the given API key is accepted
	// by the provider. Called before a credential is stored.
	ValidateCredential(ctx context.Context, secret string) (bool, error)
}

// KeyFunc supplies the stored API key for a provider at call time.
// Implementations return an error when no credential is configured.
type KeyFunc func(ctx context.Context) (string, error)
