package fulfillment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dshop/backend/internal/domain/fulfillment"
	"github.com/dshop/backend/internal/infrastructure/logger"
	"github.com/dshop/backend/internal/infrastructure/telemetry"
)

// maxResponseSize is the maximum allowed response size from the Printful API (10MB)
const maxResponseSize = 10 * 1024 * 1024

const providerName = "printful"

// PrintfulClient implements fulfillment.Gateway against the Printful REST API.
// It holds no per-shop state; the API key is supplied on every call.
type PrintfulClient struct {
	config     *PrintfulConfig
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.FulfillmentMetrics
}

var _ fulfillment.Gateway = (*PrintfulClient)(nil)

// NewPrintfulClient creates a new Printful client with the given configuration.
// metrics may be nil.
func NewPrintfulClient(config *PrintfulConfig, log *zap.Logger, metrics *telemetry.FulfillmentMetrics) (*PrintfulClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &PrintfulClient{
		config: config,
		httpClient: &http.Client{
			Timeout:   time.Duration(config.TimeoutSeconds) * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:  log.Named(providerName),
		metrics: metrics,
	}, nil
}

// GetOrder fetches an order by its external id
func (c *PrintfulClient) GetOrder(ctx context.Context, apiKey, orderID string) (json.RawMessage, error) {
	resp, err := c.doRequest(ctx, "get_order", apiKey, http.MethodGet, orderPath(orderID), nil)
	if err != nil {
		return nil, err
	}

	var env printfulEnvelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		c.log(ctx).Error("Error parsing Printful response",
			zap.String("operation", "get_order"),
			zap.Int("status", resp.status),
			zap.String("body", string(resp.body)),
		)
		c.record(ctx, "get_order", telemetry.OutcomeMalformed, resp.elapsed)
		return nil, fmt.Errorf("%w: %v", fulfillment.ErrMalformedProviderResponse, err)
	}
	if !isSuccess(resp.status) {
		c.log(ctx).Warn("Printful order lookup returned non-success status",
			zap.String("order_id", orderID),
			zap.Int("status", resp.status),
			zap.String("message", env.errorMessage()),
		)
	}

	c.record(ctx, "get_order", outcomeFor(resp.status), resp.elapsed)
	if len(env.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return env.Result, nil
}

// CreateOrder submits a new order. When confirm is true the order is confirmed
// in the same request instead of being left as a draft.
func (c *PrintfulClient) CreateOrder(ctx context.Context, apiKey string, payload *fulfillment.OrderPayload, confirm bool) error {
	path := "/orders"
	if confirm {
		path += "?confirm=true"
	}

	resp, err := c.doRequest(ctx, "create_order", apiKey, http.MethodPost, path, payload)
	if err != nil {
		return err
	}

	var env printfulEnvelope
	err = json.Unmarshal(resp.body, &env)
	if err == nil && !isSuccess(resp.status) && env.Error == nil {
		err = errors.New("rejection carries no error object")
	}
	if err != nil {
		c.log(ctx).Error("Error parsing Printful response",
			zap.String("operation", "create_order"),
			zap.Int("status", resp.status),
			zap.String("body", string(resp.body)),
		)
		c.record(ctx, "create_order", telemetry.OutcomeMalformed, resp.elapsed)
		return fmt.Errorf("%w: %v", fulfillment.ErrMalformedProviderResponse, err)
	}

	if !isSuccess(resp.status) {
		c.record(ctx, "create_order", telemetry.OutcomeRejected, resp.elapsed)
		return &fulfillment.ProviderRejectedError{
			StatusCode: rejectionStatus(env.Code, resp.status),
			Message:    env.errorMessage(),
		}
	}

	c.record(ctx, "create_order", telemetry.OutcomeSuccess, resp.elapsed)
	return nil
}

// ConfirmOrder confirms a draft order. The provider's answer is only logged.
func (c *PrintfulClient) ConfirmOrder(ctx context.Context, apiKey, orderID string) error {
	resp, err := c.doRequest(ctx, "confirm_order", apiKey, http.MethodPost, orderPath(orderID)+"/confirm", nil)
	if err != nil {
		return err
	}

	if !isSuccess(resp.status) {
		c.log(ctx).Warn("Printful order confirmation returned non-success status",
			zap.String("order_id", orderID),
			zap.Int("status", resp.status),
			zap.String("body", string(resp.body)),
		)
	}
	c.record(ctx, "confirm_order", outcomeFor(resp.status), resp.elapsed)
	return nil
}

// ShippingRates quotes shipping for the given request
func (c *PrintfulClient) ShippingRates(ctx context.Context, apiKey string, req *fulfillment.ShippingRateRequest) ([]fulfillment.Rate, error) {
	resp, err := c.doRequest(ctx, "shipping_rates", apiKey, http.MethodPost, "/shipping/rates", req)
	if err != nil {
		return nil, err
	}

	var env printfulEnvelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		c.log(ctx).Error("Error parsing Printful response",
			zap.String("operation", "shipping_rates"),
			zap.Int("status", resp.status),
			zap.String("body", string(resp.body)),
		)
		c.record(ctx, "shipping_rates", telemetry.OutcomeMalformed, resp.elapsed)
		return nil, fmt.Errorf("%w: %v", fulfillment.ErrMalformedProviderResponse, err)
	}

	result := bytes.TrimSpace(env.Result)
	if len(result) == 0 || result[0] != '[' {
		c.log(ctx).Warn("Printful shipping rates response has no rate list",
			zap.Int("status", resp.status),
			zap.String("message", env.errorMessage()),
		)
		c.record(ctx, "shipping_rates", outcomeFor(resp.status), resp.elapsed)
		return nil, fulfillment.ErrNoShippingRates
	}

	var rates []fulfillment.Rate
	if err := json.Unmarshal(result, &rates); err != nil {
		c.log(ctx).Error("Error parsing Printful shipping rates",
			zap.String("body", string(resp.body)),
			zap.Error(err),
		)
		c.record(ctx, "shipping_rates", telemetry.OutcomeMalformed, resp.elapsed)
		return nil, fmt.Errorf("%w: %v", fulfillment.ErrMalformedProviderResponse, err)
	}

	c.record(ctx, "shipping_rates", telemetry.OutcomeSuccess, resp.elapsed)
	return rates, nil
}

type printfulResponse struct {
	status  int
	body    []byte
	elapsed time.Duration
}

// doRequest performs one authenticated call and returns the status and raw body
func (c *PrintfulClient) doRequest(ctx context.Context, operation, apiKey, method, path string, payload any) (*printfulResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "printful."+operation,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrProvider, providerName),
	)
	defer span.End()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("printful: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.APIBaseURL+path, body)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("printful: build request: %w", err)
	}
	req.Header.Set("Authorization", BasicAuthorization(apiKey))
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.RecordError(span, err)
		c.log(ctx).Error("Printful request failed",
			zap.String("operation", operation),
			zap.Error(err),
		)
		c.metrics.RecordCall(ctx, providerName, operation, telemetry.OutcomeUnavailable, time.Since(start))
		return nil, fmt.Errorf("%w: %v", fulfillment.ErrProviderUnavailable, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		telemetry.RecordError(span, err)
		c.metrics.RecordCall(ctx, providerName, operation, telemetry.OutcomeUnavailable, time.Since(start))
		return nil, fmt.Errorf("%w: read response: %v", fulfillment.ErrProviderUnavailable, err)
	}

	resp := &printfulResponse{status: httpResp.StatusCode, body: data, elapsed: time.Since(start)}
	telemetry.SetAttribute(span, "http.status_code", resp.status)
	c.log(ctx).Debug("Printful request completed",
		zap.String("operation", operation),
		zap.String("method", method),
		zap.Int("status", resp.status),
		zap.Duration("elapsed", resp.elapsed),
	)
	return resp, nil
}

func (c *PrintfulClient) record(ctx context.Context, operation, outcome string, elapsed time.Duration) {
	c.metrics.RecordCall(ctx, providerName, operation, outcome, elapsed)
}

// log prefers the request-scoped logger so provider logs carry request ids
func (c *PrintfulClient) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, c.logger)
}

// BasicAuthorization builds the Authorization header value for an API key.
// Printful expects the key alone, base64 encoded, with no user:password colon.
func BasicAuthorization(apiKey string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey))
}

func orderPath(orderID string) string {
	return "/orders/@" + url.PathEscape(orderID)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func outcomeFor(status int) string {
	if isSuccess(status) {
		return telemetry.OutcomeSuccess
	}
	return telemetry.OutcomeRejected
}

// rejectionStatus prefers the envelope code when it is a usable HTTP error status
func rejectionStatus(code, httpStatus int) int {
	if code >= 400 && code <= 599 {
		return code
	}
	return httpStatus
}
