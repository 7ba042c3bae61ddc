package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dshop/backend/internal/application/identity"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/interfaces/http/dto"
	"github.com/dshop/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login godoc
// @Summary      Seller login
// @Description  Authenticate a seller with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "Login credentials"
// @Success      200 {object} dto.LoginResponse
// @Failure      400 {object} dto.Result
// @Failure      401 {object} dto.Result
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, shared.ErrInvalidInput)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Success:   true,
		Token:     result.AccessToken,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		Seller: dto.SellerInfo{
			ID:            result.Seller.ID,
			Name:          result.Seller.Name,
			Email:         result.Seller.Email,
			Superuser:     result.Seller.Superuser,
			EmailVerified: result.Seller.EmailVerified,
		},
	})
}

// Logout godoc
// @Summary      Seller logout
// @Description  Revoke the bearer token of the current seller
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Result
// @Failure      401 {object} dto.Result
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetClaims(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c)
}

// Me godoc
// @Summary      Current seller
// @Description  Return the authenticated seller
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.SellerInfo
// @Failure      401 {object} dto.Result
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	seller := middleware.GetSeller(c)
	if seller == nil {
		h.HandleError(c, shared.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, dto.SellerInfo{
		ID:            seller.ID,
		Name:          seller.Name,
		Email:         seller.Email,
		Superuser:     seller.Superuser,
		EmailVerified: seller.EmailVerified,
	})
}
