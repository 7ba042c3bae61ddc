package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dshop/backend/internal/domain/identity"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/infrastructure/auth"
)

// Authentication errors
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrUnauthenticated    = shared.NewDomainError("UNAUTHORIZED", "Unauthorized")
)

// AuthService handles seller authentication
type AuthService struct {
	sellers    identity.SellerRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	sellers identity.SellerRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		sellers:    sellers,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// Login verifies the seller's credentials and issues a token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := identity.NormalizeEmail(input.Email)
	s.logger.Info("Login attempt", zap.String("email", email), zap.String("ip", input.IP))

	seller, err := s.sellers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Seller not found during login", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Failed to load seller during login", zap.Error(err))
		return nil, err
	}

	if !seller.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.Int64("seller_id", seller.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.Generate(auth.TokenInput{
		SellerID:  seller.ID,
		Email:     seller.Email,
		Superuser: seller.Superuser,
	})
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate token")
	}

	s.logger.Info("Seller logged in", zap.Int64("seller_id", seller.ID))
	return &LoginResult{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		Seller:      toSellerInfo(seller),
	}, nil
}

// Authenticate validates a bearer token, rejects revoked tokens and loads the
// seller it was issued to. Superuser status is taken from the stored seller.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.jwtService.Validate(token)
	if err != nil {
		s.logger.Debug("Token rejected", zap.Error(err))
		return nil, ErrUnauthenticated
	}

	if s.blacklist != nil && claims.ID != "" {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Error("Failed to check token blacklist", zap.Error(err))
			return nil, err
		}
		if revoked {
			return nil, ErrUnauthenticated
		}
	}

	seller, err := s.sellers.FindByID(ctx, claims.SellerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Token names an unknown seller", zap.Int64("seller_id", claims.SellerID))
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	return &Principal{Seller: seller, Claims: claims}, nil
}

// Logout revokes the token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || s.blacklist == nil {
		return nil
	}
	ttl := claims.RemainingTTL()
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("Failed to revoke token", zap.String("jti", claims.ID), zap.Error(err))
		return err
	}
	s.logger.Info("Seller logged out", zap.Int64("seller_id", claims.SellerID))
	return nil
}
