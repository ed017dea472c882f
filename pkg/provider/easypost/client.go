// Package easypost provides integration with the EasyPost shipping API.
package easypost

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/labelrun/labelrun/pkg/provider"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const providerID = "easypost"

// Config holds EasyPost configuration.
type Config struct {
	BaseURL string
	UseMock bool // When true, uses mock API client
}

// Client is the EasyPost provider client. It implements the
// provider.Client interface and delegates API calls to the underlying
// APIClient (mock or HTTP).
type Client struct {
	config    Config
	key       provider.KeyFunc
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new EasyPost client. The key func supplies the stored
// credential at call time. If cfg.UseMock is true, a mock API client is
// used instead of the real HTTP client.
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

	return &Client{
		config:    cfg,
		key:       key,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// NewWithAPIClient creates a new EasyPost client with a custom API
// client. Useful for injecting mocks in tests.
func NewWithAPIClient(cfg Config, key provider.KeyFunc, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		key:       key,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// ID returns the provider id.
func (c *Client) ID() string {
	return providerID
}

// GenerateLabel creates an EasyPost shipment, buys its lowest rate, and
// returns the purchased label.
func (c *Client) GenerateLabel(ctx context.Context, req *provider.ShipmentRequest) (*provider.LabelResult, error) {
	apiKey, err := c.key(ctx)
	if err != nil {
		return nil, provider.NewCallError(providerID, "generate_label", err)
	}

	c.logger.Info("Creating EasyPost shipment",
		zap.String("from_zip", req.From.Zip),
		zap.String("to_zip", req.To.Zip),
	)

	shipment, err := c.apiClient.CreateShipment(ctx, apiKey, shipmentToAPI(req))
	if err != nil {
		c.logger.Error("EasyPost API error", zap.Error(err))
		return nil, callError("generate_label", err)
	}
	if len(shipment.Rates) == 0 {
		return nil, provider.NewCallError(providerID, "generate_label",
			errors.New("no rates returned for shipment"))
	}

	lowest, err := lowestRate(shipment.Rates)
	if err != nil {
		return nil, provider.NewCallError(providerID, "generate_label", err)
	}

	bought, err := c.apiClient.BuyShipment(ctx, apiKey, shipment.ID, lowest.ID)
	if err != nil {
		c.logger.Error("EasyPost API error", zap.Error(err))
		return nil, callError("generate_label", err)
	}

	return shipmentToResult(bought)
}

// ValidateCredential verifies the API key against the addresses endpoint.
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

// ============================================================================
// Conversion helpers
// ============================================================================

func shipmentToAPI(req *provider.ShipmentRequest) *ShipmentRequest {
	parcel := ParcelInput{Weight: req.Weight}
	if d := req.Dimensions; d != nil {
		parcel.Length = d.Length
		parcel.Width = d.Width
		parcel.Height = d.Height
	}

	return &ShipmentRequest{
		Shipment: ShipmentInput{
			FromAddress: addressToAPI(req.From),
			ToAddress:   addressToAPI(req.To),
			Parcel:      parcel,
		},
	}
}

func addressToAPI(a provider.Address) AddressInput {
	country := a.Country
	if country == "" {
		country = "US"
	}
	return AddressInput{
		Name:    a.Name,
		Street1: a.Street,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: country,
	}
}

func lowestRate(rates []Rate) (*Rate, error) {
	var best *Rate
	bestAmount := 0.0
	for i := range rates {
		amount, err := strconv.ParseFloat(rates[i].Rate, 64)
		if err != nil {
			return nil, fmt.Errorf("unparseable rate %q: %w", rates[i].Rate, err)
		}
		if best == nil || amount < bestAmount {
			best = &rates[i]
			bestAmount = amount
		}
	}
	return best, nil
}

func shipmentToResult(s *Shipment) (*provider.LabelResult, error) {
	if s.SelectedRate == nil || s.PostageLabel == nil {
		return nil, provider.NewCallError(providerID, "generate_label",
			errors.New("purchase response missing rate or label"))
	}

	rate, err := strconv.ParseFloat(s.SelectedRate.Rate, 64)
	if err != nil {
		return nil, provider.NewCallError(providerID, "generate_label",
			fmt.Errorf("unparseable selected rate %q: %w", s.SelectedRate.Rate, err))
	}

	return &provider.LabelResult{
		Provider:       providerID,
		ProviderName:   "EasyPost",
		Rate:           rate,
		TrackingNumber: s.TrackingCode,
		LabelURL:       s.PostageLabel.LabelURL,
		TrackingURL:    "https://track.easypost.com/" + s.TrackingCode,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func callError(op string, err error) error {
	ce := provider.NewCallError(providerID, op, err)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		ce.WithStatusCode(apiErr.StatusCode)
	}
	return ce
}
