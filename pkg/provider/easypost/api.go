package easypost

import (
	"context"
)

// APIClient defines the EasyPost API operations the client needs.
// The API key is passed per call because credentials are configured at
// runtime through the credential store.
type APIClient interface {
	// CreateShipment creates a shipment and returns rated options.
	// POST /v2/shipments
	CreateShipment(ctx context.Context, apiKey string, req *ShipmentRequest) (*Shipment, error)

	// BuyShipment purchases the given rate for a shipment.
	// POST /v2/shipments/{id}/buy
	BuyShipment(ctx context.Context, apiKey, shipmentID, rateID string) (*Shipment, error)

	// CheckCredential performs a cheap authenticated read to verify
	// the API key. GET /v2/addresses
	CheckCredential(ctx context.Context, apiKey string) error
}

// ============================================================================
// API Request/Response Types (match EasyPost REST API v2 structure)
// ============================================================================

// ShipmentRequest wraps the shipment payload for POST /v2/shipments.
type ShipmentRequest struct {
	Shipment ShipmentInput `json:"shipment"`
}

// ShipmentInput is the shipment body.
type ShipmentInput struct {
	FromAddress AddressInput `json:"from_address"`
	ToAddress   AddressInput `json:"to_address"`
	Parcel      ParcelInput  `json:"parcel"`
}

// AddressInput is an EasyPost address.
type AddressInput struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// ParcelInput is an EasyPost parcel. Weight is in ounces, dimensions
// in inches.
type ParcelInput struct {
	Weight float64 `json:"weight"`
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Shipment is the EasyPost shipment object returned by create and buy.
type Shipment struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Rates        []Rate        `json:"rates"`
	SelectedRate *Rate         `json:"selected_rate,omitempty"`
	PostageLabel *PostageLabel `json:"postage_label,omitempty"`
	TrackingCode string        `json:"tracking_code,omitempty"`
}

// Rate is a single rated option. EasyPost serializes monetary amounts
// as strings.
type Rate struct {
	ID           string `json:"id"`
	Carrier      string `json:"carrier"`
	Service      string `json:"service"`
	Rate         string `json:"rate"`
	Currency     string `json:"currency"`
	DeliveryDays int    `json:"delivery_days,omitempty"`
}

// PostageLabel is the purchased label artifact.
type PostageLabel struct {
	ID       string `json:"id"`
	LabelURL string `json:"label_url"`
}

// APIError represents an error body from the EasyPost API.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
