package stamps

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

// CreateShipment returns mock printed postage.
func (m *MockAPIClient) CreateShipment(ctx context.Context, apiKey string, req *ShipmentRequest) (*ShipmentResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return nil, &APIError{ErrorCode: "MOCK_ERROR", Message: "Simulated API error"}
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, apiKey, req)
	}

	tracking := fmt.Sprintf("9405%012d", time.Now().UnixNano()%1e12)
	return &ShipmentResponse{
		ShipmentID:     "st-" + uuid.New().String()[:8],
		Amount:         7.05,
		Currency:       "USD",
		ServiceType:    "USPS Priority Mail",
		TrackingNumber: tracking,
		LabelURL:       fmt.Sprintf("https://print.stamps.mock/%s.pdf", tracking),
		TrackingURL:    "https://tools.usps.com/go/TrackConfirmAction?tLabels=" + tracking,
	}, nil
}

// CheckCredential accepts any key unless errors are simulated.
func (m *MockAPIClient) CheckCredential(ctx context.Context, apiKey string) error {
	if m.SimulateErrors {
		return &APIError{ErrorCode: "UNAUTHORIZED", Message: "Simulated auth error", StatusCode: 401}
	}
	return nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
