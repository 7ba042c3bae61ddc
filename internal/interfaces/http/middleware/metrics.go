package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dshop/backend/internal/infrastructure/telemetry"
)

type httpInstruments struct {
	total    *telemetry.Counter
	latency  *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	total, err := telemetry.NewCounter(meter, "http_server_request_total", "HTTP requests served", "{request}")
	if err != nil {
		return nil, err
	}
	latency, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	return &httpInstruments{total: total, latency: latency, inFlight: inFlight}, nil
}

func passThrough(c *gin.Context) { c.Next() }

// HTTPMetrics records request count, latency and in-flight requests.
// A nil or disabled provider yields a pass-through handler.
func HTTPMetrics(mp *telemetry.MeterProvider) gin.HandlerFunc {
	if !mp.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(mp.Meter("http.server"))
}

// HTTPMetricsWithMeter records on an existing meter
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	inst, err := newHTTPInstruments(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		inst.inFlight.Add(ctx, 1)
		defer inst.inFlight.Add(ctx, -1)

		c.Next()

		// labels use the route pattern so ids in the path stay out of the series
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		labels := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}
		inst.latency.RecordDuration(ctx, time.Since(start), labels...)

		labels = append(labels, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
		if s := GetShop(c); s != nil {
			labels = append(labels, telemetry.AttrShopID.String(strconv.FormatInt(s.ID, 10)))
		}
		inst.total.Inc(ctx, labels...)
	}
}
