package stamps

import (
	"context"
)

// APIClient defines the Stamps.com API operations the client needs.
type APIClient interface {
	// CreateShipment prints postage for a shipment.
	// POST /v1/shipments
	CreateShipment(ctx context.Context, apiKey string, req *ShipmentRequest) (*ShipmentResponse, error)

	// CheckCredential verifies the API key. GET /v1/account
	CheckCredential(ctx context.Context, apiKey string) error
}

// ShipmentRequest is the body for POST /v1/shipments.
type ShipmentRequest struct {
	ShipFrom Address `json:"ship_from"`
	ShipTo   Address `json:"ship_to"`
	WeightOz float64 `json:"weight_oz"`
	Length   float64 `json:"length,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
}

// Address is a Stamps.com address.
type Address struct {
	FullName   string `json:"full_name"`
	Address1   string `json:"address1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// ShipmentResponse is the printed postage result.
type ShipmentResponse struct {
	ShipmentID     string  `json:"shipment_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	ServiceType    string  `json:"service_type"`
	TrackingNumber string  `json:"tracking_number"`
	LabelURL       string  `json:"label_url"`
	TrackingURL    string  `json:"tracking_url"`
}

// APIError represents an error from the Stamps.com API.
type APIError struct {
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return e.ErrorCode + ": " + e.Message
	}
	return e.Message
}
