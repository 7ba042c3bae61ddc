package identity

import (
	"time"

	"github.com/dshop/backend/internal/domain/identity"
	"github.com/dshop/backend/internal/infrastructure/auth"
)

// LoginInput contains the input for seller login
type LoginInput struct {
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	TokenType   string
	Seller      SellerInfo
}

// SellerInfo contains basic seller information returned after login
type SellerInfo struct {
	ID            int64
	Name          string
	Email         string
	Superuser     bool
	EmailVerified bool
}

// Principal is an authenticated seller together with the claims of the token
// that authenticated them
type Principal struct {
	Seller *identity.Seller
	Claims *auth.Claims
}

func toSellerInfo(s *identity.Seller) SellerInfo {
	return SellerInfo{
		ID:            s.ID,
		Name:          s.Name,
		Email:         s.Email,
		Superuser:     s.Superuser,
		EmailVerified: s.EmailVerified,
	}
}
