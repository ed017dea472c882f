package pirateship

import (
	"context"
)

// APIClient defines the PirateShip API operations the client needs.
// PirateShip exposes a single-call shipment endpoint that rates and
// purchases in one round trip.
type APIClient interface {
	// CreateShipment rates and purchases a shipment.
	// POST /v1/shipments
	CreateShipment(ctx context.Context, apiKey string, req *ShipmentRequest) (*ShipmentResponse, error)

	// CheckCredential verifies the API key. GET /v1/user
	CheckCredential(ctx context.Context, apiKey string) error
}

// ShipmentRequest is the body for POST /v1/shipments.
type ShipmentRequest struct {
	From   Address `json:"from"`
	To     Address `json:"to"`
	Weight float64 `json:"weight_oz"`
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Address is a PirateShip address.
type Address struct {
	Name   string `json:"name"`
	Street string `json:"street1"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// ShipmentResponse is the purchased shipment.
type ShipmentResponse struct {
	ID             string  `json:"id"`
	Rate           float64 `json:"rate"`
	Currency       string  `json:"currency"`
	Service        string  `json:"service"`
	TrackingNumber string  `json:"tracking_number"`
	LabelURL       string  `json:"label_url"`
	TrackingURL    string  `json:"tracking_url"`
}

// APIError represents an error from the PirateShip API.
type APIError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}
