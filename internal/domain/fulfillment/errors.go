package fulfillment

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing indicates the shop has no stored provider API key.
	// It is terminal for the request and never retried.
	ErrConfigurationMissing = errors.New("fulfillment: provider API configuration missing")
	// ErrMalformedProviderResponse indicates the provider body was not valid JSON
	ErrMalformedProviderResponse = errors.New("fulfillment: malformed provider response")
	// ErrProviderUnavailable indicates a transport-level failure talking to the provider
	ErrProviderUnavailable = errors.New("fulfillment: provider unavailable")
	// ErrEmptyShippableItems indicates no line item had a resolvable variant
	ErrEmptyShippableItems = errors.New("fulfillment: no shippable items")
	// ErrNoShippingRates indicates the provider answered without a list of rates
	ErrNoShippingRates = errors.New("fulfillment: provider returned no shipping rates")
	// ErrInvalidRateAmount indicates a rate amount that is not a decimal number
	ErrInvalidRateAmount = errors.New("fulfillment: invalid rate amount")
	// ErrInvalidOrderPayload indicates an order payload missing required fields
	ErrInvalidOrderPayload = errors.New("fulfillment: invalid order payload")
)

// ProviderRejectedError is returned when the provider answered with valid JSON
// and a non-2xx status. StatusCode and Message are forwarded to the caller verbatim.
type ProviderRejectedError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *ProviderRejectedError) Error() string {
	return fmt.Sprintf("fulfillment: provider rejected request (%d): %s", e.StatusCode, e.Message)
}
