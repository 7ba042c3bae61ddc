package fulfillment

import (
	"context"
	"encoding/json"
)

// SecretKeyPrintful is the encrypted-config key holding a shop's Printful API key
const SecretKeyPrintful = "printful"

// SecretStore reads per-shop secrets. A missing secret yields "" and no error.
type SecretStore interface {
	Get(ctx context.Context, shopID int64, key string) (string, error)
}

// Gateway is the fulfillment provider's REST API, authenticated per call with
// the shop's API key. Every method performs exactly one outbound request.
type Gateway interface {
	// GetOrder returns the provider's "result" field for the order, or nil when absent
	GetOrder(ctx context.Context, apiKey, orderID string) (json.RawMessage, error)
	// CreateOrder submits the payload; confirm requests provider-side confirmation in the same call
	CreateOrder(ctx context.Context, apiKey string, payload *OrderPayload, confirm bool) error
	// ConfirmOrder confirms a previously created draft order
	ConfirmOrder(ctx context.Context, apiKey, orderID string) error
	// ShippingRates quotes the candidate rates for a filtered request
	ShippingRates(ctx context.Context, apiKey string, req *ShippingRateRequest) ([]Rate, error)
}
