// Package fulfillment orchestrates Printful calls on behalf of a shop.
package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshop/backend/internal/domain/fulfillment"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/infrastructure/logger"
	"github.com/dshop/backend/internal/infrastructure/telemetry"
)

const spanService = "fulfillment"

// Service resolves the shop's API key and forwards each operation to the gateway.
// It holds no state between calls.
type Service struct {
	secrets fulfillment.SecretStore
	gateway fulfillment.Gateway
	logger  *zap.Logger
}

// NewService creates a new fulfillment service
func NewService(secrets fulfillment.SecretStore, gateway fulfillment.Gateway, logger *zap.Logger) *Service {
	return &Service{
		secrets: secrets,
		gateway: gateway,
		logger:  logger,
	}
}

// RetrieveOrder returns the provider's view of an order, JSON null when it has none
func (s *Service) RetrieveOrder(ctx context.Context, shopID int64, orderID string) (json.RawMessage, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "retrieve_order",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, shopID),
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
	)
	defer span.End()

	apiKey, err := s.apiKey(ctx, shopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result, err := s.gateway.GetOrder(ctx, apiKey, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	telemetry.SetOK(span)
	return result, nil
}

// OrderDecoder reads the order payload of a request
type OrderDecoder func() (*fulfillment.OrderPayload, error)

// ShippingDecoder reads the recipient and line items of a quote request
type ShippingDecoder func() (fulfillment.Recipient, []fulfillment.LineItem, error)

// CreateOrder submits an order. Unless the payload is flagged as a draft the
// provider is asked to confirm it in the same call. The body is decoded only
// once the shop's key is known, so a shop without one always gets
// ErrConfigurationMissing.
func (s *Service) CreateOrder(ctx context.Context, shopID int64, decode OrderDecoder) error {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "create_order",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, shopID),
	)
	defer span.End()

	apiKey, err := s.apiKey(ctx, shopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	payload, err := decode()
	if err != nil {
		err = invalidInput(err)
		telemetry.RecordError(span, err)
		return err
	}
	if err := payload.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	telemetry.SetAttributes(span,
		"draft", payload.Draft(),
		telemetry.SpanAttrItemCount, len(payload.Items),
	)
	if err := s.gateway.CreateOrder(ctx, apiKey, payload, !payload.Draft()); err != nil {
		s.logCreateFailure(ctx, err)
		telemetry.RecordError(span, err)
		return err
	}

	telemetry.SetOK(span)
	return nil
}

// ConfirmOrder confirms a draft order. The provider's answer is not inspected.
func (s *Service) ConfirmOrder(ctx context.Context, shopID int64, orderID string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "confirm_order",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, shopID),
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
	)
	defer span.End()

	apiKey, err := s.apiKey(ctx, shopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if err := s.gateway.ConfirmOrder(ctx, apiKey, orderID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	telemetry.SetOK(span)
	return nil
}

// QuoteShipping asks the provider for rates and maps them to shipping options.
// Items without a resolvable variant are dropped; when none remain the
// provider is not called. Like CreateOrder it decodes only after the key lookup.
func (s *Service) QuoteShipping(ctx context.Context, shopID int64, decode ShippingDecoder) ([]fulfillment.ShippingOption, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "quote_shipping",
		telemetry.WithAttribute(telemetry.SpanAttrShopID, shopID),
	)
	defer span.End()

	apiKey, err := s.apiKey(ctx, shopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	recipient, items, err := decode()
	if err != nil {
		err = invalidInput(err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrItemCount, len(items))

	req, err := fulfillment.NewShippingRateRequest(recipient, items)
	if err != nil {
		return nil, err
	}

	rates, err := s.gateway.ShippingRates(ctx, apiKey, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	options := make([]fulfillment.ShippingOption, 0, len(rates))
	for _, rate := range rates {
		option, labeled, err := fulfillment.NewShippingOption(rate, recipient.CountryCode)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("rate %q: %w", rate.ID, err)
		}
		if !labeled {
			s.log(ctx).Warn("Shipping rate name has no detail group, using it as label",
				zap.String("rate_id", rate.ID),
				zap.String("rate_name", rate.Name),
			)
		}
		options = append(options, option)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrRateCount, len(options))
	telemetry.SetOK(span)
	return options, nil
}

// apiKey loads the shop's Printful key; an empty key is a configuration error
func (s *Service) apiKey(ctx context.Context, shopID int64) (string, error) {
	key, err := s.secrets.Get(ctx, shopID, fulfillment.SecretKeyPrintful)
	if err != nil {
		return "", fmt.Errorf("load printful api key: %w", err)
	}
	if key == "" {
		s.log(ctx).Warn("Shop has no Printful API key configured", zap.Int64("shop_id", shopID))
		return "", fulfillment.ErrConfigurationMissing
	}
	return key, nil
}

// invalidInput marks an undecodable body. Payload validation errors pass through.
func invalidInput(err error) error {
	if errors.Is(err, fulfillment.ErrInvalidOrderPayload) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
}

// log prefers the request-scoped logger and falls back to the service logger
func (s *Service) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, logger.FromContextOr(ctx, s.logger))
}

func (s *Service) logCreateFailure(ctx context.Context, err error) {
	var rejected *fulfillment.ProviderRejectedError
	if errors.As(err, &rejected) {
		s.log(ctx).Error("Attempt to create Printful order failed",
			zap.Int("status", rejected.StatusCode),
			zap.String("reason", rejected.Message),
		)
	}
}
