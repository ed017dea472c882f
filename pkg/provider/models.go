package provider

import (
	"time"
)

// Address represents one side of a shipment.
type Address struct {
	Name   string `json:"name"`
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
	// ISO 3166-1 alpha-2. Only "US" is in scope; rate comparison
	// assumes a uniform USD unit across providers.
	Country string `json:"country"`
}

// Dimensions are optional parcel measurements in inches.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ShipmentRequest is the normalized user input for a single
// shipping-label generation.
type ShipmentRequest struct {
	From       Address     `json:"from"`
	To         Address     `json:"to"`
	Weight     float64     `json:"weight"` // ounces
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// LabelResult is the output of one provider's label-generation call.
// Rates are currency-agnostic floats, uniform (USD) across providers.
type LabelResult struct {
	Provider       string    `json:"provider"`
	ProviderName   string    `json:"provider_name"`
	Rate           float64   `json:"rate"`
	TrackingNumber string    `json:"tracking_number"`
	LabelURL       string    `json:"label_url"`
	TrackingURL    string    `json:"tracking_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// ValidationErrors maps a request field name to its validation message.
// An empty map means the request is well-formed.
type ValidationErrors map[string]string
