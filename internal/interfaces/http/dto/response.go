package dto

import "github.com/dshop/backend/internal/domain/fulfillment"

// Result is the envelope every storefront route answers with
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OK is the bare success result
func OK() Result {
	return Result{Success: true}
}

// Failure is a failed result; an empty message is omitted from the body
func Failure(message string) Result {
	return Result{Success: false, Message: message}
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the body returned by a successful login
type LoginResponse struct {
	Success   bool       `json:"success"`
	Token     string     `json:"token"`
	ExpiresAt string     `json:"expiresAt"`
	Seller    SellerInfo `json:"seller"`
}

// SellerInfo is the public view of a seller
type SellerInfo struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Superuser     bool   `json:"superuser"`
	EmailVerified bool   `json:"emailVerified"`
}

// ShippingRequest is the body of POST /shipping
type ShippingRequest struct {
	Recipient fulfillment.Recipient  `json:"recipient" binding:"required"`
	Items     []fulfillment.LineItem `json:"items"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	Database string `json:"database"`
}
