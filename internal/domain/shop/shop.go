package shop

import (
	"context"

	"github.com/dshop/backend/internal/domain/shared"
)

// Shop is the tenant storefront; configuration and API keys are scoped to it
type Shop struct {
	shared.BaseEntity
	Name      string
	AuthToken string
	// Config is the encrypted per-integration configuration blob.
	// It is only ever read through the encrypted config store.
	Config string
}

// Role is the access level a seller holds within a shop
type Role string

const (
	RoleAdmin Role = "admin"
	RoleBasic Role = "basic"
)

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleBasic
}

// Membership links a seller to a shop with a role
type Membership struct {
	SellerID int64
	ShopID   int64
	Role     Role
}

// HasRole reports whether the membership grants the required role.
// Admins satisfy every role requirement.
func (m *Membership) HasRole(required Role) bool {
	if m == nil {
		return false
	}
	if m.Role == RoleAdmin {
		return true
	}
	return m.Role == required
}

// Repository resolves shops and seller memberships
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Shop, error)
	FindByAuthToken(ctx context.Context, token string) (*Shop, error)
	FindMembership(ctx context.Context, sellerID, shopID int64) (*Membership, error)
}

// ConfigRepository persists the encrypted configuration blob of a shop
type ConfigRepository interface {
	LoadConfig(ctx context.Context, shopID int64) (string, error)
	SaveConfig(ctx context.Context, shopID int64, blob string) error
}
