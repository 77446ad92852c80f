// internal/utils/validator.go
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ipfs/go-cid"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("eth_address", validateEthAddress)
	validate.RegisterValidation("content_id", validateContentID)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateEthAddress(fl validator.FieldLevel) bool {
	return IsValidAddress(fl.Field().String())
}

// validateContentID accepts a bare CID or an ipfs:// URI.
func validateContentID(fl validator.FieldLevel) bool {
	value := strings.TrimPrefix(fl.Field().String(), "ipfs://")
	_, err := cid.Decode(value)
	return err == nil
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "eth_address":
		return e.Field() + " must be a valid wallet address"
	case "content_id":
		return e.Field() + " must be a valid content identifier"
	default:
		return e.Field() + " is invalid"
	}
}
