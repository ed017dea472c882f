package provider

import (
	"regexp"
)

var zipRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// ValidateZip reports whether s is a 5-digit or 5+4 US postal code.
func ValidateZip(s string) bool {
	return zipRe.MatchString(s)
}

const (
	msgRequired         = "This field is required"
	msgInvalidZip       = "Invalid ZIP code"
	msgInvalidWeight    = "Weight must be a positive number"
	msgInvalidDimension = "Dimension must be a positive number"
)

// Validate checks a shipment request against the required-field,
// postal-code, and positive-number rules. It is a pure function and
// performs no I/O; an empty result means the request may be dispatched.
func Validate(req *ShipmentRequest) ValidationErrors {
	errs := ValidationErrors{}

	required := []struct {
		field string
		value string
	}{
		{"fromName", req.From.Name},
		{"fromAddress", req.From.Street},
		{"fromCity", req.From.City},
		{"fromState", req.From.State},
		{"fromZip", req.From.Zip},
		{"toName", req.To.Name},
		{"toAddress", req.To.Street},
		{"toCity", req.To.City},
		{"toState", req.To.State},
		{"toZip", req.To.Zip},
	}
	for _, f := range required {
		if f.value == "" {
			errs[f.field] = msgRequired
		}
	}

	if req.From.Zip != "" && !ValidateZip(req.From.Zip) {
		errs["fromZip"] = msgInvalidZip
	}
	if req.To.Zip != "" && !ValidateZip(req.To.Zip) {
		errs["toZip"] = msgInvalidZip
	}

	if req.Weight == 0 {
		errs["weight"] = msgRequired
	} else if req.Weight < 0 {
		errs["weight"] = msgInvalidWeight
	}

	if d := req.Dimensions; d != nil {
		if d.Length <= 0 {
			errs["dimensions.length"] = msgInvalidDimension
		}
		if d.Width <= 0 {
			errs["dimensions.width"] = msgInvalidDimension
		}
		if d.Height <= 0 {
			errs["dimensions.height"] = msgInvalidDimension
		}
	}

	return errs
}
