package easypost

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCreateShipment  func(ctx context.Context, apiKey string, req *ShipmentRequest) (*Shipment, error)
	OnBuyShipment     func(ctx context.Context, apiKey, shipmentID, rateID string) (*Shipment, error)
	OnCheckCredential func(ctx context.Context, apiKey string) error
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CreateShipment returns a mock rated shipment.
func (m *MockAPIClient) CreateShipment(ctx context.Context, apiKey string, req *ShipmentRequest) (*Shipment, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, apiKey, req)
	}

	shipmentID := "shp_" + uuid.New().String()[:8]
	return &Shipment{
		ID:     shipmentID,
		Status: "unknown",
		Rates: []Rate{
			{
				ID:           "rate_" + uuid.New().String()[:8],
				Carrier:      "USPS",
				Service:      "Priority",
				Rate:         "7.33",
				Currency:     "USD",
				DeliveryDays: 2,
			},
			{
				ID:           "rate_" + uuid.New().String()[:8],
				Carrier:      "USPS",
				Service:      "GroundAdvantage",
				Rate:         "5.93",
				Currency:     "USD",
				DeliveryDays: 4,
			},
		},
	}, nil
}

// BuyShipment returns a mock purchased shipment.
func (m *MockAPIClient) BuyShipment(ctx context.Context, apiKey, shipmentID, rateID string) (*Shipment, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}
	if m.OnBuyShipment != nil {
		return m.OnBuyShipment(ctx, apiKey, shipmentID, rateID)
	}

	tracking := fmt.Sprintf("9400%012d", time.Now().UnixNano()%1e12)
	return &Shipment{
		ID:     shipmentID,
		Status: "purchased",
		SelectedRate: &Rate{
			ID:       rateID,
			Carrier:  "USPS",
			Service:  "GroundAdvantage",
			Rate:     "5.93",
			Currency: "USD",
		},
		PostageLabel: &PostageLabel{
			ID:       "pl_" + uuid.New().String()[:8],
			LabelURL: fmt.Sprintf("https://easypost-files.mock/labels/%s.png", shipmentID),
		},
		TrackingCode: tracking,
	}, nil
}

// CheckCredential accepts any key unless errors are simulated.
func (m *MockAPIClient) CheckCredential(ctx context.Context, apiKey string) error {
	if m.SimulateErrors {
		return &APIError{Code: "UNAUTHORIZED", Message: "Simulated auth error", StatusCode: 401}
	}
	if m.OnCheckCredential != nil {
		return m.OnCheckCredential(ctx, apiKey)
	}
	return nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
