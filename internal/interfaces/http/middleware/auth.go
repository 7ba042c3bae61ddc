package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	identityapp "github.com/dshop/backend/internal/application/identity"
	"github.com/dshop/backend/internal/domain/identity"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/domain/shop"
	"github.com/dshop/backend/internal/infrastructure/auth"
	"github.com/dshop/backend/internal/infrastructure/logger"
	"github.com/dshop/backend/internal/interfaces/http/dto"
)

// Auth context keys
const (
	SellerKey     = "auth_seller"
	ClaimsKey     = "auth_claims"
	ShopKey       = "auth_shop"
	MembershipKey = "auth_membership"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	ShopAuthKey   = "X-Shop-Auth"
)

// SellerAuthenticator turns a bearer token into an authenticated seller
type SellerAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*identityapp.Principal, error)
}

// ShopResolver resolves the shop of a request and the caller's membership in it
type ShopResolver interface {
	ResolveShop(ctx context.Context, authToken string) (*shop.Shop, error)
	Membership(ctx context.Context, sellerID, shopID int64) (*shop.Membership, error)
}

// AuthSeller requires a valid seller bearer token
func AuthSeller(authn SellerAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticateSeller(c, authn) {
			return
		}
		c.Next()
	}
}

// AuthShop requires a known shop auth token in the X-Shop-Auth header
func AuthShop(shops ShopResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticateShop(c, shops) {
			return
		}
		c.Next()
	}
}

// AuthSellerAndShop requires both a seller and a shop, and that the seller
// is a member of the shop. The membership is stored for RequireShopRole.
func AuthSellerAndShop(authn SellerAuthenticator, shops ShopResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticateSeller(c, authn) || !authenticateShop(c, shops) {
			return
		}

		seller := GetSeller(c)
		current := GetShop(c)
		membership, err := shops.Membership(c.Request.Context(), seller.ID, current.ID)
		if err != nil {
			abortWithAuthError(c, err)
			return
		}
		c.Set(MembershipKey, membership)
		c.Next()
	}
}

// RequireShopRole requires the seller's membership to grant role.
// It must run after AuthSellerAndShop.
func RequireShopRole(role shop.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		membership, _ := c.Get(MembershipKey)
		m, _ := membership.(*shop.Membership)
		if !m.HasRole(role) {
			logger.GetGinLogger(c).Warn("Seller lacks shop role",
				zap.String("required_role", string(role)),
			)
			abortWith(c, shared.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireSuperUser requires the authenticated seller to be a superuser.
// It must run after AuthSeller.
func RequireSuperUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		seller := GetSeller(c)
		if seller == nil || !seller.Superuser {
			abortWith(c, shared.ErrForbidden)
			return
		}
		c.Next()
	}
}

// GetSeller returns the authenticated seller, nil when none
func GetSeller(c *gin.Context) *identity.Seller {
	if v, ok := c.Get(SellerKey); ok {
		if seller, ok := v.(*identity.Seller); ok {
			return seller
		}
	}
	return nil
}

// GetClaims returns the claims of the bearer token, nil when none
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetShop returns the authenticated shop, nil when none
func GetShop(c *gin.Context) *shop.Shop {
	if v, ok := c.Get(ShopKey); ok {
		if s, ok := v.(*shop.Shop); ok {
			return s
		}
	}
	return nil
}

func authenticateSeller(c *gin.Context, authn SellerAuthenticator) bool {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		abortWith(c, shared.ErrUnauthorized)
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		abortWith(c, shared.ErrUnauthorized)
		return false
	}

	principal, err := authn.Authenticate(c.Request.Context(), token)
	if err != nil {
		abortWithAuthError(c, err)
		return false
	}

	c.Set(SellerKey, principal.Seller)
	c.Set(ClaimsKey, principal.Claims)

	logger.Bind(c, logger.GetGinLogger(c).With(zap.Int64("seller_id", principal.Seller.ID)))
	return true
}

func authenticateShop(c *gin.Context, shops ShopResolver) bool {
	found, err := shops.ResolveShop(c.Request.Context(), c.GetHeader(ShopAuthKey))
	if err != nil {
		abortWithAuthError(c, err)
		return false
	}

	c.Set(ShopKey, found)

	logger.Bind(c, logger.GetGinLogger(c).With(zap.Int64("shop_id", found.ID)))
	return true
}

// abortWith answers with the status and message of a domain error
func abortWith(c *gin.Context, err *shared.DomainError) {
	c.AbortWithStatusJSON(dto.StatusForDomainCode(err.Code), dto.Failure(err.Message))
}

// abortWithAuthError answers 401 for rejected credentials and 500 otherwise
func abortWithAuthError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		abortWith(c, shared.ErrUnauthorized)
		return
	}
	logger.GetGinLogger(c).Error("Authentication lookup failed", zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Failure("Internal server error"))
}
