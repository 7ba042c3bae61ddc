// Package middleware provides the gin middleware of the storefront API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshop/backend/internal/infrastructure/telemetry"
)

// Tracing starts a server span per request, named "METHOD /route/:pattern".
// When disabled the handler only calls the next one.
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	return otelgin.Middleware(serviceName)
}

// TracingAttributeInjector copies the request id and the authenticated
// seller and shop onto the current span. Mount it after the auth middleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			attrs := []attribute.KeyValue{attribute.String("request_id", c.GetString("request_id"))}
			if seller := GetSeller(c); seller != nil {
				attrs = append(attrs, attribute.Int64("seller_id", seller.ID))
			}
			if s := GetShop(c); s != nil {
				attrs = append(attrs, attribute.Int64(telemetry.SpanAttrShopID, s.ID))
			}
			span.SetAttributes(attrs...)
		}
		c.Next()
	}
}

// SpanErrorMarker fails the request span for 4xx and 5xx responses. Mount it
// after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
