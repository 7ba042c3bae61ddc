package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	fulfillmentapp "github.com/dshop/backend/internal/application/fulfillment"
	"github.com/dshop/backend/internal/domain/fulfillment"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/infrastructure/logger"
	"github.com/dshop/backend/internal/interfaces/http/dto"
	"github.com/dshop/backend/internal/interfaces/http/middleware"
)

const (
	msgMissingConfiguration = "Missing printful API configuration"
	msgServiceUnavailable   = "Service Unavailable"
	msgProviderUnavailable  = "Printful is unavailable"
)

// PrintfulHandler proxies order and shipping requests to Printful for the
// authenticated shop
type PrintfulHandler struct {
	BaseHandler
	service *fulfillmentapp.Service
}

// NewPrintfulHandler creates a new PrintfulHandler
func NewPrintfulHandler(service *fulfillmentapp.Service) *PrintfulHandler {
	return &PrintfulHandler{service: service}
}

// GetOrder godoc
// @Summary      Get Printful order
// @Description  Return the Printful view of a marketplace order, null when Printful has none
// @Tags         printful
// @Produce      json
// @Security     BearerAuth
// @Param        orderId path string true "Order ID"
// @Success      200 {object} object
// @Failure      401 {object} dto.Result
// @Failure      404 {object} dto.Result
// @Failure      500 {object} dto.Result
// @Router       /orders/{orderId}/printful [get]
func (h *PrintfulHandler) GetOrder(c *gin.Context) {
	ord := middleware.GetOrder(c)
	if ord == nil {
		h.NotFound(c, "Order not found")
		return
	}

	result, err := h.service.RetrieveOrder(c.Request.Context(), ord.ShopID, ord.OrderID)
	if err != nil {
		h.handleProviderError(c, err, msgMissingConfiguration)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", result)
}

// CreateOrder godoc
// @Summary      Create Printful order
// @Description  Submit an order to Printful. Unless "draft" is set the order is confirmed immediately.
// @Tags         printful
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orderId path string true "Order ID"
// @Param        request body object true "Printful order payload"
// @Success      200 {object} dto.Result
// @Failure      400 {object} dto.Result
// @Failure      401 {object} dto.Result
// @Failure      500 {object} dto.Result
// @Failure      502 {object} dto.Result
// @Router       /orders/{orderId}/printful/create [post]
func (h *PrintfulHandler) CreateOrder(c *gin.Context) {
	shop := middleware.GetShop(c)
	if shop == nil {
		h.HandleError(c, shared.ErrUnauthorized)
		return
	}

	decode := func() (*fulfillment.OrderPayload, error) {
		body, err := c.GetRawData()
		if err != nil {
			return nil, err
		}
		var payload fulfillment.OrderPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	}
	if err := h.service.CreateOrder(c.Request.Context(), shop.ID, decode); err != nil {
		h.handleProviderError(c, err, msgMissingConfiguration)
		return
	}
	h.OK(c)
}

// ConfirmOrder godoc
// @Summary      Confirm Printful order
// @Description  Confirm a draft Printful order
// @Tags         printful
// @Produce      json
// @Security     BearerAuth
// @Param        orderId path string true "Order ID"
// @Success      200 {object} dto.Result
// @Failure      401 {object} dto.Result
// @Failure      404 {object} dto.Result
// @Failure      500 {object} dto.Result
// @Router       /orders/{orderId}/printful/confirm [post]
func (h *PrintfulHandler) ConfirmOrder(c *gin.Context) {
	ord := middleware.GetOrder(c)
	if ord == nil {
		h.NotFound(c, "Order not found")
		return
	}

	if err := h.service.ConfirmOrder(c.Request.Context(), ord.ShopID, ord.OrderID); err != nil {
		h.handleProviderError(c, err, msgMissingConfiguration)
		return
	}
	h.OK(c)
}

// Shipping godoc
// @Summary      Quote shipping
// @Description  Ask Printful for shipping rates and return them as shipping options
// @Tags         printful
// @Accept       json
// @Produce      json
// @Param        X-Shop-Auth header string true "Shop auth token"
// @Param        request body dto.ShippingRequest true "Recipient and line items"
// @Success      200 {array} fulfillment.ShippingOption
// @Failure      400 {object} dto.Result
// @Failure      401 {object} dto.Result
// @Failure      500 {object} dto.Result
// @Router       /shipping [post]
func (h *PrintfulHandler) Shipping(c *gin.Context) {
	shop := middleware.GetShop(c)
	if shop == nil {
		h.HandleError(c, shared.ErrUnauthorized)
		return
	}

	decode := func() (fulfillment.Recipient, []fulfillment.LineItem, error) {
		var req dto.ShippingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return fulfillment.Recipient{}, nil, err
		}
		return req.Recipient, req.Items, nil
	}
	options, err := h.service.QuoteShipping(c.Request.Context(), shop.ID, decode)
	if err != nil {
		h.handleProviderError(c, err, msgServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, options)
}

// handleProviderError maps fulfillment failures onto the responses the
// storefront expects. missingConfig is the message sent when the shop has no key.
func (h *PrintfulHandler) handleProviderError(c *gin.Context, err error, missingConfig string) {
	var rejected *fulfillment.ProviderRejectedError
	switch {
	case errors.Is(err, fulfillment.ErrConfigurationMissing):
		h.InternalError(c, missingConfig)
	case errors.As(err, &rejected):
		h.Fail(c, rejected.StatusCode, rejected.Message)
	case errors.Is(err, shared.ErrInvalidInput):
		h.HandleError(c, shared.ErrInvalidInput)
	case errors.Is(err, fulfillment.ErrInvalidOrderPayload):
		h.BadRequest(c, err.Error())
	case errors.Is(err, fulfillment.ErrProviderUnavailable):
		h.Fail(c, http.StatusBadGateway, msgProviderUnavailable)
	case errors.Is(err, fulfillment.ErrMalformedProviderResponse),
		errors.Is(err, fulfillment.ErrEmptyShippableItems),
		errors.Is(err, fulfillment.ErrNoShippingRates),
		errors.Is(err, fulfillment.ErrInvalidRateAmount):
		c.JSON(http.StatusOK, dto.Failure(""))
	default:
		logger.GetGinLogger(c).Error("Printful request failed", zap.Error(err))
		h.InternalError(c, "An unexpected error occurred")
	}
}
