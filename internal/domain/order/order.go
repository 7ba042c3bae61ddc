package order

import (
	"context"
	"encoding/json"

	"github.com/dshop/backend/internal/domain/shared"
)

// Order is a marketplace order belonging to a shop.
// OrderID is the external-facing identifier, also used to address the
// fulfillment provider ("@<orderId>").
type Order struct {
	shared.BaseEntity
	ShopID  int64
	OrderID string
	Network int
	Status  string
	Data    json.RawMessage
}

// Repository looks up orders within a shop
type Repository interface {
	FindByOrderID(ctx context.Context, shopID int64, orderID string) (*Order, error)
}
