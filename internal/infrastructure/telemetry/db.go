package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig configures database instrumentation.
type DBConfig struct {
	TracingEnabled    bool
	LogFullSQL        bool
	SlowQueryThresh   time.Duration
	PoolStatsInterval time.Duration
	DBSystem          string
}

// DefaultDBConfig returns secure defaults: no bind variables in spans.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		SlowQueryThresh:   200 * time.Millisecond,
		PoolStatsInterval: 15 * time.Second,
		DBSystem:          "postgresql",
	}
}

type dbContextKey struct{}

// dbHooks wraps each gorm operation with a before and after callback.
type dbHooks struct {
	name   string
	before func(string, func(*gorm.DB)) error
	after  func(string, func(*gorm.DB)) error
	op     string
}

func hooksFor(db *gorm.DB) []dbHooks {
	cb := db.Callback()
	return []dbHooks{
		{"create", func(n string, f func(*gorm.DB)) error { return cb.Create().Before("gorm:create").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Create().After("gorm:create").Register(n, f) }, "INSERT"},
		{"query", func(n string, f func(*gorm.DB)) error { return cb.Query().Before("gorm:query").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Query().After("gorm:query").Register(n, f) }, "SELECT"},
		{"update", func(n string, f func(*gorm.DB)) error { return cb.Update().Before("gorm:update").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Update().After("gorm:update").Register(n, f) }, "UPDATE"},
		{"delete", func(n string, f func(*gorm.DB)) error { return cb.Delete().Before("gorm:delete").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Delete().After("gorm:delete").Register(n, f) }, "DELETE"},
		{"row", func(n string, f func(*gorm.DB)) error { return cb.Row().Before("gorm:row").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Row().After("gorm:row").Register(n, f) }, ""},
		{"raw", func(n string, f func(*gorm.DB)) error { return cb.Raw().Before("gorm:raw").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Raw().After("gorm:raw").Register(n, f) }, ""},
	}
}

func markStart(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, dbContextKey{}, time.Now())
}

func elapsed(db *gorm.DB) (time.Duration, bool) {
	if db.Statement.Context == nil {
		return 0, false
	}
	start, ok := db.Statement.Context.Value(dbContextKey{}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// detectOperation classifies Row and Raw statements.
func detectOperation(stmt string) string {
	stmt = strings.ToUpper(strings.TrimSpace(stmt))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(stmt, op) {
			return op
		}
	}
	if strings.HasPrefix(stmt, "WITH") {
		return "SELECT"
	}
	return "OTHER"
}

// InstrumentDB registers otelgorm tracing plus slow query marking. Spans
// never carry bind variables unless LogFullSQL is set, since checkout
// queries contain customer emails and addresses.
func InstrumentDB(db *gorm.DB, cfg DBConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.TracingEnabled {
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = DefaultDBConfig().SlowQueryThresh
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	slow := func(db *gorm.DB) {
		span := trace.SpanFromContext(db.Statement.Context)
		if !span.IsRecording() {
			return
		}
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
		if d, ok := elapsed(db); ok && d > cfg.SlowQueryThresh {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", d.Milliseconds()),
				attribute.Int64("threshold_ms", cfg.SlowQueryThresh.Milliseconds()),
			))
		}
	}

	for _, h := range hooksFor(db) {
		if err := h.before("otel_timing:before_"+h.name, markStart); err != nil {
			return err
		}
		if err := h.after("otel_slow_query:"+h.name, slow); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

// DBMetrics records query latency and connection pool usage.
type DBMetrics struct {
	queryTotal      *Counter
	queryDuration   *Histogram
	slowQueryTotal  *Counter
	poolConnections *Gauge

	cfg      DBConfig
	sqlDB    *sql.DB
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates the database instruments on meter.
func NewDBMetrics(meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultDBConfig()
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaults.SlowQueryThresh
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = defaults.PoolStatsInterval
	}

	queryTotal, err := NewCounter(meter, "db_query_total", "Database queries by operation", "{query}")
	if err != nil {
		return nil, err
	}
	queryDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	slowQueryTotal, err := NewCounter(meter, "db_slow_query_total", "Queries slower than the threshold by table", "{query}")
	if err != nil {
		return nil, err
	}
	poolConnections, err := NewGauge(meter, "db_pool_connections", "Connections in the pool by state", "{connection}")
	if err != nil {
		return nil, err
	}

	return &DBMetrics{
		queryTotal:      queryTotal,
		queryDuration:   queryDuration,
		slowQueryTotal:  slowQueryTotal,
		poolConnections: poolConnections,
		cfg:             cfg,
		logger:          logger,
		stopCh:          make(chan struct{}),
	}, nil
}

// RecordQuery records one finished statement.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, d time.Duration) {
	if operation == "" {
		operation = "OTHER"
	}
	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, d, AttrDBOperation.String(operation))
	if d > m.cfg.SlowQueryThresh {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

// Attach registers the query callbacks on db and remembers its pool.
func (m *DBMetrics) Attach(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	m.sqlDB = sqlDB

	for _, h := range hooksFor(db) {
		op := h.op
		if err := h.before("db_metrics:before_"+h.name, markStart); err != nil {
			return err
		}
		if err := h.after("db_metrics:after_"+h.name, func(db *gorm.DB) {
			d, ok := elapsed(db)
			if !ok {
				return
			}
			operation := op
			if operation == "" {
				operation = detectOperation(db.Statement.SQL.String())
			}
			m.RecordQuery(db.Statement.Context, operation, db.Statement.Table, d)
		}); err != nil {
			return err
		}
	}
	return nil
}

// StartPoolStats samples sql.DB stats until Stop or ctx is done.
func (m *DBMetrics) StartPoolStats(ctx context.Context) {
	if m.sqlDB == nil {
		m.logger.Warn("Pool stats not started: database not attached")
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.PoolStatsInterval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
	m.poolConnections.Record(ctx, int64(stats.MaxOpenConnections), AttrDBState.String("max"))
}

// Stop ends pool sampling. Safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// RegisterDBMetrics attaches DBMetrics to db when metrics are exported.
// It returns nil, nil when mp is disabled.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, cfg DBConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !mp.IsEnabled() {
		return nil, nil
	}
	m, err := NewDBMetrics(mp.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := m.Attach(db); err != nil {
		return nil, err
	}
	return m, nil
}
