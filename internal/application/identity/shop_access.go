package identity

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/domain/shop"
)

// Shop access errors
var (
	ErrUnknownShop   = shared.NewDomainError("UNKNOWN_SHOP", "Unauthorized")
	ErrNotShopMember = shared.NewDomainError("NOT_SHOP_MEMBER", "Unauthorized")
)

// ShopAccessService resolves shops from their auth token and checks that a
// seller belongs to them
type ShopAccessService struct {
	shops  shop.Repository
	logger *zap.Logger
}

// NewShopAccessService creates a new shop access service
func NewShopAccessService(shops shop.Repository, logger *zap.Logger) *ShopAccessService {
	return &ShopAccessService{shops: shops, logger: logger}
}

// ResolveShop returns the shop identified by the auth token
func (s *ShopAccessService) ResolveShop(ctx context.Context, authToken string) (*shop.Shop, error) {
	authToken = strings.TrimSpace(authToken)
	if authToken == "" {
		return nil, ErrUnknownShop
	}
	found, err := s.shops.FindByAuthToken(ctx, authToken)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUnknownShop
		}
		s.logger.Error("Failed to resolve shop", zap.Error(err))
		return nil, err
	}
	return found, nil
}

// Membership returns the seller's membership in the shop
func (s *ShopAccessService) Membership(ctx context.Context, sellerID, shopID int64) (*shop.Membership, error) {
	membership, err := s.shops.FindMembership(ctx, sellerID, shopID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Seller is not a member of shop",
				zap.Int64("seller_id", sellerID),
				zap.Int64("shop_id", shopID),
			)
			return nil, ErrNotShopMember
		}
		s.logger.Error("Failed to load shop membership", zap.Error(err))
		return nil, err
	}
	return membership, nil
}
