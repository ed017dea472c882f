package shippo

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

	OnCreateShipment    func(ctx context.Context, token string, req *ShipmentRequest) (*Shipment, error)
	OnCreateTransaction func(ctx context.Context, token string, req *TransactionRequest) (*Transaction, error)
	OnCheckCredential   func(ctx context.Context, token string) error
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CreateShipment returns a mock rated shipment.
func (m *MockAPIClient) CreateShipment(ctx context.Context, token string, req *ShipmentRequest) (*Shipment, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return nil, &APIError{Detail: "Simulated API error"}
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, token, req)
	}

	shipment := &Shipment{
		ObjectID: uuid.New().String(),
		Status:   "SUCCESS",
	}

	ground := Rate{
		ObjectID:      uuid.New().String(),
		Amount:        "6.79",
		Currency:      "USD",
		Provider:      "USPS",
		EstimatedDays: 3,
	}
	ground.ServiceLevel.Name = "Ground Advantage"
	ground.ServiceLevel.Token = "usps_ground_advantage"

	priority := Rate{
		ObjectID:      uuid.New().String(),
		Amount:        "8.41",
		Currency:      "USD",
		Provider:      "USPS",
		EstimatedDays: 2,
	}
	priority.ServiceLevel.Name = "Priority Mail"
	priority.ServiceLevel.Token = "usps_priority"

	shipment.Rates = []Rate{ground, priority}
	return shipment, nil
}

// CreateTransaction returns a mock purchased label.
func (m *MockAPIClient) CreateTransaction(ctx context.Context, token string, req *TransactionRequest) (*Transaction, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return nil, &APIError{Detail: "Simulated API error"}
	}
	if m.OnCreateTransaction != nil {
		return m.OnCreateTransaction(ctx, token, req)
	}

	tracking := fmt.Sprintf("9205%012d", time.Now().UnixNano()%1e12)
	tx := &Transaction{
		ObjectID:       uuid.New().String(),
		Status:         "SUCCESS",
		TrackingNumber: tracking,
		TrackingURL:    "https://tools.usps.com/go/TrackConfirmAction?tLabels=" + tracking,
		LabelURL:       fmt.Sprintf("https://shippo-delivery.mock/%s.pdf", req.Rate),
	}
	tx.Rate = Rate{ObjectID: req.Rate, Amount: "6.79", Currency: "USD", Provider: "USPS"}
	return tx, nil
}

// CheckCredential accepts any token unless errors are simulated.
func (m *MockAPIClient) CheckCredential(ctx context.Context, token string) error {
	if m.SimulateErrors {
		return &APIError{Detail: "Simulated auth error", StatusCode: 401}
	}
	if m.OnCheckCredential != nil {
		return m.OnCheckCredential(ctx, token)
	}
	return nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
