// internal/services/errors.go
package services

import "errors"

// Sentinel errors handlers map onto the stable response codes.
// Internal failure detail never crosses the handler boundary.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyRegistered = errors.New("asset is already registered")
	ErrNotOwner          = errors.New("requester does not own the asset")
	ErrListingNotActive  = errors.New("listing is not active")
	ErrSelfPurchase      = errors.New("cannot buy own listing")
	ErrPaymentFailed     = errors.New("license payment failed")
)

// ExternalError marks a failure of an upstream dependency so handlers
// can answer with the external-service code instead of a plain 500.
type ExternalError struct {
	Service string
	Err     error
}

func (e *ExternalError) Error() string {
	return e.Service + ": " + e.Err.Error()
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}
