// Package mock provides a mock provider client for testing.
package mock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/labelrun/labelrun/pkg/provider"
)

// Client is a mock provider for testing. Rate and error behavior are
// fixed at construction; call counts are tracked for assertions.
type Client struct {
	id   string
	rate float64
	err  error

	labelCalls    atomic.Int64
	validateCalls atomic.Int64
}

// New creates a mock provider that returns labels at the given rate.
func New(id string, rate float64) *Client {
	return &Client{id: id, rate: rate}
}

// NewFailing creates a mock provider whose calls always fail with err.
func NewFailing(id string, err error) *Client {
	return &Client{id: id, err: err}
}

// ID returns the provider id.
func (c *Client) ID() string {
	return c.id
}

// LabelCalls returns how many times GenerateLabel was invoked.
func (c *Client) LabelCalls() int {
	return int(c.labelCalls.Load())
}

// ValidateCalls returns how many times ValidateCredential was invoked.
func (c *Client) ValidateCalls() int {
	return int(c.validateCalls.Load())
}

// GenerateLabel returns a deterministic mock label.
func (c *Client) GenerateLabel(ctx context.Context, req *provider.ShipmentRequest) (*provider.LabelResult, error) {
	c.labelCalls.Add(1)
	if c.err != nil {
		return nil, provider.NewCallError(c.id, "generate_label", c.err)
	}

	tracking := fmt.Sprintf("MOCK%s%011d", c.id[:2], c.labelCalls.Load())
	return &provider.LabelResult{
		Provider:       c.id,
		ProviderName:   c.id,
		Rate:           c.rate,
		TrackingNumber: tracking,
		LabelURL:       fmt.Sprintf("https://labels.%s.mock/%s.pdf", c.id, tracking),
		TrackingURL:    fmt.Sprintf("https://track.%s.mock/%s", c.id, tracking),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// ValidateCredential accepts any non-empty secret.
func (c *Client) ValidateCredential(ctx context.Context, secret string) (bool, error) {
	c.validateCalls.Add(1)
	if c.err != nil {
		return false, provider.NewCallError(c.id, "validate_credential", c.err)
	}
	return secret != "", nil
}
