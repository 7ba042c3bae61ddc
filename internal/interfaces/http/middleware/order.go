package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dshop/backend/internal/domain/order"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/infrastructure/logger"
	"github.com/dshop/backend/internal/interfaces/http/dto"
)

// OrderKey is the context key of the order resolved by FindOrder
const OrderKey = "order"

// FindOrder resolves the :orderId path parameter within the authenticated
// shop. It must run after a middleware that sets the shop.
func FindOrder(orders order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := GetShop(c)
		if current == nil {
			abortWith(c, shared.ErrUnauthorized)
			return
		}

		found, err := orders.FindByOrderID(c.Request.Context(), current.ID, c.Param("orderId"))
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, dto.Failure("Order not found"))
				return
			}
			logger.GetGinLogger(c).Error("Failed to load order", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Failure("Internal server error"))
			return
		}

		c.Set(OrderKey, found)
		c.Next()
	}
}

// GetOrder returns the order resolved by FindOrder, nil when none
func GetOrder(c *gin.Context) *order.Order {
	if v, ok := c.Get(OrderKey); ok {
		if o, ok := v.(*order.Order); ok {
			return o
		}
	}
	return nil
}
