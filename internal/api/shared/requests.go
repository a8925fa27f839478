package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance for request structs.
var Validate = validator.New()

// DecodeJSON decodes the request body into the given struct.
func DecodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// ValidateRequest validates the given struct, preferring the struct's own
// Validate method when it has one.
func ValidateRequest(v interface{}) error {
	if validating, ok := v.(interface{ Validate() error }); ok {
		return validating.Validate()
	}
	return Validate.Struct(v)
}
