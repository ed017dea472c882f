// Package pirateship provides integration with the PirateShip USPS API.
package pirateship

import (
	"context"
	"errors"
	"time"

	"github.com/labelrun/labelrun/pkg/provider"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const providerID = "pirateship"

// Config holds PirateShip configuration.
type Config struct {
	BaseURL string
	UseMock bool
}

// Client is the PirateShip provider client.
type Client struct {
	config    Config
	key       provider.KeyFunc
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new PirateShip client.
func New(cfg Config, key provider.KeyFunc, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: 30 * time.Second,
		})
	}
	return &Client{config: cfg, key: key, apiClient: apiClient, logger: logger, tracer: tracer}
}

// NewWithAPIClient creates a client with a custom API client for tests.
func NewWithAPIClient(cfg Config, key provider.KeyFunc, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{config: cfg, key: key, apiClient: apiClient, logger: logger, tracer: tracer}
}

// ID returns the provider id.
func (c *Client) ID() string {
	return providerID
}

// GenerateLabel rates and purchases a shipment in a single call.
func (c *Client) GenerateLabel(ctx context.Context, req *provider.ShipmentRequest) (*provider.LabelResult, error) {
	apiKey, err := c.key(ctx)
	if err != nil {
		return nil, provider.NewCallError(providerID, "generate_label", err)
	}

	c.logger.Info("Creating PirateShip shipment",
		zap.String("from_zip", req.From.Zip),
		zap.String("to_zip", req.To.Zip),
	)

	apiReq := &ShipmentRequest{
		From:   addressToAPI(req.From),
		To:     addressToAPI(req.To),
		Weight: req.Weight,
	}
	if d := req.Dimensions; d != nil {
		apiReq.Length, apiReq.Width, apiReq.Height = d.Length, d.Width, d.Height
	}

	shipment, err := c.apiClient.CreateShipment(ctx, apiKey, apiReq)
	if err != nil {
		c.logger.Error("PirateShip API error", zap.Error(err))
		return nil, callError("generate_label", err)
	}

	return &provider.LabelResult{
		Provider:       providerID,
		ProviderName:   "PirateShip",
		Rate:           shipment.Rate,
		TrackingNumber: shipment.TrackingNumber,
		LabelURL:       shipment.LabelURL,
		TrackingURL:    shipment.TrackingURL,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// ValidateCredential verifies the API key against the user endpoint.
func (c *Client) ValidateCredential(ctx context.Context, secret string) (bool, error) {
	if err := c.apiClient.CheckCredential(ctx, secret); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == 401 || apiErr.StatusCode == 403) {
			return false, nil
		}
		return false, callError("validate_credential", err)
	}
	return true, nil
}

func addressToAPI(a provider.Address) Address {
	return Address{
		Name:   a.Name,
		Street: a.Street,
		City:   a.City,
		State:  a.State,
		Zip:    a.Zip,
	}
}

func callError(op string, err error) error {
	ce := provider.NewCallError(providerID, op, err)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		ce.WithStatusCode(apiErr.StatusCode)
	}
	return ce
}
