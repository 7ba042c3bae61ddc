package identity

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dshop/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

// Seller is a marketplace account that administers one or more shops
type Seller struct {
	shared.BaseEntity
	Name          string
	Email         string
	PasswordHash  string
	Superuser     bool
	EmailVerified bool
	Data          json.RawMessage
}

// NewSeller creates a seller with a hashed password
func NewSeller(name, email, password string) (*Seller, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(password) < 8 {
		return nil, shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Seller{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Data:         json.RawMessage(`{}`),
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (s *Seller) VerifyPassword(password string) bool {
	if s.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)) == nil
}

// NormalizeEmail lower-cases and trims an email address for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SellerRepository loads sellers for authentication
type SellerRepository interface {
	FindByID(ctx context.Context, id int64) (*Seller, error)
	FindByEmail(ctx context.Context, email string) (*Seller, error)
}
