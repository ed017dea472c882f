package shippo

import (
	"context"
)

// APIClient defines the Shippo API operations the client needs. The
// token is passed per call because credentials are configured at
// runtime through the credential store.
type APIClient interface {
	// CreateShipment creates a shipment and returns rated options.
	// POST /shipments/
	CreateShipment(ctx context.Context, token string, req *ShipmentRequest) (*Shipment, error)

	// CreateTransaction purchases a rate, producing a label.
	// POST /transactions/
	CreateTransaction(ctx context.Context, token string, req *TransactionRequest) (*Transaction, error)

	// CheckCredential performs a cheap authenticated read to verify
	// the token. GET /addresses/
	CheckCredential(ctx context.Context, token string) error
}

// ============================================================================
// API Request/Response Types (match Shippo REST API structure)
// ============================================================================

// ShipmentRequest is the body for POST /shipments/.
type ShipmentRequest struct {
	AddressFrom Address  `json:"address_from"`
	AddressTo   Address  `json:"address_to"`
	Parcels     []Parcel `json:"parcels"`
	Async       bool     `json:"async"`
}

// Address is a Shippo address.
type Address struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Parcel is a Shippo parcel. Shippo serializes measurements as strings.
type Parcel struct {
	Length       string `json:"length"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	DistanceUnit string `json:"distance_unit"` // "in"
	Weight       string `json:"weight"`
	MassUnit     string `json:"mass_unit"` // "oz"
}

// Shipment is the Shippo shipment object with its rated options.
type Shipment struct {
	ObjectID string `json:"object_id"`
	Status   string `json:"status"`
	Rates    []Rate `json:"rates"`
}

// Rate is a single rated option. Amounts are strings.
type Rate struct {
	ObjectID     string `json:"object_id"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Provider     string `json:"provider"` // carrier, e.g. "USPS"
	ServiceLevel struct {
		Name  string `json:"name"`
		Token string `json:"token"`
	} `json:"servicelevel"`
	EstimatedDays int `json:"estimated_days"`
}

// TransactionRequest is the body for POST /transactions/.
type TransactionRequest struct {
	Rate          string `json:"rate"` // rate object_id
	LabelFileType string `json:"label_file_type"`
	Async         bool   `json:"async"`
}

// Transaction is the purchased label.
type Transaction struct {
	ObjectID       string   `json:"object_id"`
	Status         string   `json:"status"` // "SUCCESS", "ERROR"
	Rate           Rate     `json:"rate"`
	TrackingNumber string   `json:"tracking_number"`
	TrackingURL    string   `json:"tracking_url_provider"`
	LabelURL       string   `json:"label_url"`
	Messages       []Message `json:"messages,omitempty"`
}

// Message carries diagnostics attached to a transaction.
type Message struct {
	Source string `json:"source"`
	Code   string `json:"code"`
	Text   string `json:"text"`
}

// APIError represents an error from the Shippo API.
type APIError struct {
	Detail     string `json:"detail"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Detail
}
