package telemetry

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled bool
	// DBSystem is "postgresql" or "sqlite".
	DBSystem string
	// IncludeVariables puts bound values into db.statement. Invoice rows hold
	// client addresses, so leave it off outside development.
	IncludeVariables bool
	SlowQueryThresh  time.Duration
}

const startKey = "telemetry:query_start"

// RegisterDBTracing installs the otelgorm plugin plus a callback that marks
// slow statements on their span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.IncludeVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) { tx.InstanceSet(startKey, time.Now()) }
	after := func(tx *gorm.DB) { markSlow(tx, cfg.SlowQueryThresh) }

	cb := db.Callback()
	for _, reg := range []struct {
		name string
		err  error
	}{
		{"create", cb.Create().Before("gorm:create").Register("telemetry:before_create", before)},
		{"create", cb.Create().After("gorm:create").Register("telemetry:after_create", after)},
		{"query", cb.Query().Before("gorm:query").Register("telemetry:before_query", before)},
		{"query", cb.Query().After("gorm:query").Register("telemetry:after_query", after)},
		{"update", cb.Update().Before("gorm:update").Register("telemetry:before_update", before)},
		{"update", cb.Update().After("gorm:update").Register("telemetry:after_update", after)},
		{"raw", cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", before)},
		{"raw", cb.Raw().After("gorm:raw").Register("telemetry:after_raw", after)},
	} {
		if reg.err != nil {
			return reg.err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh))
	return nil
}

func markSlow(tx *gorm.DB, threshold time.Duration) {
	v, ok := tx.InstanceGet(startKey)
	if !ok {
		return
	}
	elapsed := time.Since(v.(time.Time))
	if elapsed < threshold || tx.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(tx.Statement.Context)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
}
