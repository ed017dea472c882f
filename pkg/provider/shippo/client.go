// Package shippo provides integration with the Shippo multi-carrier API.
package shippo

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

const providerID = "shippo"

// Config holds Shippo configuration.
type Config struct {
	BaseURL string
	UseMock bool // When true, uses mock API client
}

// Client is the Shippo provider client. It implements the
// provider.Client interface and delegates API calls to the underlying
// APIClient (mock or HTTP).
type Client struct {
	config    Config
	key       provider.KeyFunc
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Shippo client. The key func supplies the stored
// token at call time.
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

// NewWithAPIClient creates a new Shippo client with a custom API
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

// GenerateLabel creates a Shippo shipment, buys its lowest rate via a
// transaction, and returns the purchased label.
func (c *Client) GenerateLabel(ctx context.Context, req *provider.ShipmentRequest) (*provider.LabelResult, error) {
	token, err := c.key(ctx)
	if err != nil {
		return nil, provider.NewCallError(providerID, "generate_label", err)
	}

	c.logger.Info("Creating Shippo shipment",
		zap.String("from_zip", req.From.Zip),
		zap.String("to_zip", req.To.Zip),
	)

	shipment, err := c.apiClient.CreateShipment(ctx, token, shipmentToAPI(req))
	if err != nil {
		c.logger.Error("Shippo API error", zap.Error(err))
		return nil, callError("generate_label", err)
	}
	if len(shipment.Rates) == 0 {
		return nil, provider.NewCallError(providerID, "generate_label",
			errors.New("no rates returned for shipment"))
	}

	lowest, lowestAmount, err := lowestRate(shipment.Rates)
	if err != nil {
		return nil, provider.NewCallError(providerID, "generate_label", err)
	}

	tx, err := c.apiClient.CreateTransaction(ctx, token, &TransactionRequest{
		Rate:          lowest.ObjectID,
		LabelFileType: "PDF",
	})
	if err != nil {
		c.logger.Error("Shippo API error", zap.Error(err))
		return nil, callError("generate_label", err)
	}
	if tx.Status != "SUCCESS" {
		return nil, provider.NewCallError(providerID, "generate_label",
			fmt.Errorf("transaction status %s: %s", tx.Status, firstMessage(tx.Messages)))
	}

	return &provider.LabelResult{
		Provider:       providerID,
		ProviderName:   "Shippo",
		Rate:           lowestAmount,
		TrackingNumber: tx.TrackingNumber,
		LabelURL:       tx.LabelURL,
		TrackingURL:    tx.TrackingURL,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// ValidateCredential verifies the token against the addresses endpoint.
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
	parcel := Parcel{
		DistanceUnit: "in",
		MassUnit:     "oz",
		Weight:       strconv.FormatFloat(req.Weight, 'f', -1, 64),
	}
	if d := req.Dimensions; d != nil {
		parcel.Length = strconv.FormatFloat(d.Length, 'f', -1, 64)
		parcel.Width = strconv.FormatFloat(d.Width, 'f', -1, 64)
		parcel.Height = strconv.FormatFloat(d.Height, 'f', -1, 64)
	}

	return &ShipmentRequest{
		AddressFrom: addressToAPI(req.From),
		AddressTo:   addressToAPI(req.To),
		Parcels:     []Parcel{parcel},
		Async:       false,
	}
}

func addressToAPI(a provider.Address) Address {
	country := a.Country
	if country == "" {
		country = "US"
	}
	return Address{
		Name:    a.Name,
		Street1: a.Street,
		City:    a.City,
		State:   a.State,
		Zip:     a.Zip,
		Country: country,
	}
}

func lowestRate(rates []Rate) (*Rate, float64, error) {
	var best *Rate
	bestAmount := 0.0
	for i := range rates {
		amount, err := strconv.ParseFloat(rates[i].Amount, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("unparseable rate amount %q: %w", rates[i].Amount, err)
		}
		if best == nil || amount < bestAmount {
			best = &rates[i]
			bestAmount = amount
		}
	}
	return best, bestAmount, nil
}

func firstMessage(msgs []Message) string {
	if len(msgs) == 0 {
		return "no diagnostic messages"
	}
	return msgs[0].Text
}

func callError(op string, err error) error {
	ce := provider.NewCallError(providerID, op, err)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		ce.WithStatusCode(apiErr.StatusCode)
	}
	return ce
}
