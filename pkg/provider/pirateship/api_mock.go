package pirateship

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

	OnCreateShipment func(ctx context.Context, apiKey string, req *ShipmentRequest) (*ShipmentResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CreateShipment returns a mock purchased shipment.
func (m *MockAPIClient) CreateShipment(ctx context.Context, apiKey string, req *ShipmentRequest) (*ShipmentResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return nil, &APIError{Message: "Simulated API error"}
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, apiKey, req)
	}

	tracking := fmt.Sprintf("9214%012d", time.Now().UnixNano()%1e12)
	return &ShipmentResponse{
		ID:             "ps-" + uuid.New().String()[:8],
		Rate:           6.12,
		Currency:       "USD",
		Service:        "USPS Ground Advantage",
		TrackingNumber: tracking,
		LabelURL:       fmt.Sprintf("https://pirateship.mock/labels/%s.pdf", tracking),
		TrackingURL:    "https://tools.usps.com/go/TrackConfirmAction?tLabels=" + tracking,
	}, nil
}

// CheckCredential accepts any key unless errors are simulated.
func (m *MockAPIClient) CheckCredential(ctx context.Context, apiKey string) error {
	if m.SimulateErrors {
		return &APIError{Message: "Simulated auth error", StatusCode: 401}
	}
	return nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
