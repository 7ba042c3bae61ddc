package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormLogger writes GORM output through zap. SQL issued under a request
// is logged with that request's logger so it shares its fields.
type GormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// NewGormLogger creates a GORM logger at the given level
func NewGormLogger(l *zap.Logger, level gormlogger.LogLevel) *GormLogger {
	return &GormLogger{log: l, level: level, slow: slowQueryThreshold}
}

// LogMode implements gormlogger.Interface
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (g *GormLogger) printf(ctx context.Context, threshold gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if g.level < threshold {
		return
	}
	g.scoped(ctx).Log(lvl, fmt.Sprintf(msg, data...))
}

// Trace implements gormlogger.Interface
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	var (
		lvl zapcore.Level
		msg string
	)
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && g.level >= gormlogger.Error:
		lvl, msg = zapcore.ErrorLevel, "SQL error"
	case elapsed > g.slow && g.level >= gormlogger.Warn:
		lvl, msg = zapcore.WarnLevel, fmt.Sprintf("Slow SQL >= %v", g.slow)
	case g.level >= gormlogger.Info:
		lvl, msg = zapcore.DebugLevel, "SQL query"
	default:
		return
	}

	ce := g.scoped(ctx).Check(lvl, msg)
	if ce == nil {
		return
	}
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	if lvl == zapcore.ErrorLevel {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

func (g *GormLogger) scoped(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return g.log.Named("gorm")
	}
	return FromContextOr(ctx, g.log).Named("gorm")
}

// MapGormLogLevel maps a config string to a GORM log level, defaulting to warn
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
