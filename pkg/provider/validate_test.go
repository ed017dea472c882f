package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/labelrun/labelrun/pkg/provider"
)

func validRequest() *provider.ShipmentRequest {
	return &provider.ShipmentRequest{
		From: provider.Address{
			Name:   "Acme Warehouse",
			Street: "100 Market St",
			City:   "San Francisco",
			State:  "CA",
			Zip:    "94105",
		},
		To: provider.Address{
			Name:   "Jane Receiver",
			Street: "200 Broadway",
			City:   "New York",
			State:  "NY",
			Zip:    "10038",
		},
		Weight: 16,
	}
}

func TestValidateZip(t *testing.T) {
	tests := []struct {
		zip  string
		want bool
	}{
		{"94105", true},
		{"94105-1234", true},
		{"941", false},
		{"941051234", false},
		{"ABCDE", false},
		{"94105-12", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, provider.ValidateZip(tt.zip), "zip %q", tt.zip)
	}
}

func TestValidate_ValidRequest(t *testing.T) {
	errs := provider.Validate(validRequest())
	assert.Empty(t, errs)
}

func TestValidate_MissingFields(t *testing.T) {
	errs := provider.Validate(&provider.ShipmentRequest{})

	// Every required field should be reported, not just the first.
	for _, field := range []string{
		"fromName", "fromAddress", "fromCity", "fromState", "fromZip",
		"toName", "toAddress", "toCity", "toState", "toZip",
		"weight",
	} {
		assert.Contains(t, errs, field)
	}
	assert.Equal(t, "This field is required", errs["fromName"])
	assert.Equal(t, "This field is required", errs["weight"])
}

func TestValidate_InvalidZip(t *testing.T) {
	req := validRequest()
	req.From.Zip = "941"
	req.To.Zip = "ABCDE"

	errs := provider.Validate(req)
	assert.Equal(t, "Invalid ZIP code", errs["fromZip"])
	assert.Equal(t, "Invalid ZIP code", errs["toZip"])
	assert.Len(t, errs, 2)
}

func TestValidate_PlusFourZip(t *testing.T) {
	req := validRequest()
	req.To.Zip = "10038-4412"
	assert.Empty(t, provider.Validate(req))
}

func TestValidate_NegativeWeight(t *testing.T) {
	req := validRequest()
	req.Weight = -3

	errs := provider.Validate(req)
	assert.Equal(t, "Weight must be a positive number", errs["weight"])
}

func TestValidate_Dimensions(t *testing.T) {
	req := validRequest()
	req.Dimensions = &provider.Dimensions{Length: 10, Width: 0, Height: -2}

	errs := provider.Validate(req)
	assert.NotContains(t, errs, "dimensions.length")
	assert.Equal(t, "Dimension must be a positive number", errs["dimensions.width"])
	assert.Equal(t, "Dimension must be a positive number", errs["dimensions.height"])
}

func TestValidate_DimensionsOptional(t *testing.T) {
	req := validRequest()
	req.Dimensions = nil
	assert.Empty(t, provider.Validate(req))
}
