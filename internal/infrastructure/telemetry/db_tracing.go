package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSlowQuery = 200 * time.Millisecond
	startedKey       = "telemetry:query_started"
)

// DBTracingConfig controls the gorm spans
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // bind variables in db.statement; development only
	SlowQueryThresh time.Duration
	DBSystem        string // postgresql or sqlite
}

func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{SlowQueryThresh: defaultSlowQuery, DBSystem: "postgresql"}
}

// DBTracingPlugin installs otelgorm and flags reads slower than the threshold
// on their span
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Install registers otelgorm and the timing callbacks on db. Disabled
// tracing leaves db untouched.
func (p *DBTracingPlugin) Install(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("install otelgorm: %w", err)
	}

	// the ledger and order lookups are reads, so only those are timed
	query, row := db.Callback().Query(), db.Callback().Row()
	for _, cb := range []struct {
		name string
		err  error
	}{
		{"otel_timing:before_query", query.Before("gorm:query").Register("otel_timing:before_query", p.start)},
		{"otel_timing:before_row", row.Before("gorm:row").Register("otel_timing:before_row", p.start)},
		{"otel_slow_query:query", query.After("gorm:query").Register("otel_slow_query:query", p.finish)},
		{"otel_slow_query:row", row.After("gorm:row").Register("otel_slow_query:row", p.finish)},
	} {
		if cb.err != nil {
			return fmt.Errorf("register %s: %w", cb.name, cb.err)
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.config.DBSystem),
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func (p *DBTracingPlugin) start(db *gorm.DB) {
	db.InstanceSet(startedKey, time.Now())
}

func (p *DBTracingPlugin) finish(db *gorm.DB) {
	table := db.Statement.Table
	span := trace.SpanFromContext(db.Statement.Context)
	if span.IsRecording() {
		if table != "" {
			span.SetAttributes(attribute.String("db.sql.table", table))
		}
		if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}

	v, ok := db.InstanceGet(startedKey)
	if !ok {
		return
	}
	elapsed := time.Since(v.(time.Time))
	if elapsed <= p.config.SlowQueryThresh {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
	p.logger.Warn("Slow query",
		zap.String("table", table),
		zap.Duration("elapsed", elapsed),
		zap.Duration("threshold", p.config.SlowQueryThresh),
	)
}
