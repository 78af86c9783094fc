package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for database metrics.
type DBMetricsConfig struct {
	SlowQueryThreshold time.Duration // default: 200ms
	PoolStatsInterval  time.Duration // default: 15s
}

// DBMetrics records query counts, latency and connection pool usage.
type DBMetrics struct {
	poolConnections metric.Int64Gauge
	queries         metric.Int64Counter
	queryDuration   metric.Float64Histogram
	slowQueries     metric.Int64Counter

	config   DBMetricsConfig
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates the database instruments on meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	b := NewInstruments(meter)
	m := &DBMetrics{
		poolConnections: b.Gauge("db_pool_connections", "Connections in the pool by state", "{connection}"),
		queries:         b.Counter("db_query_total", "Database queries by operation", "{query}"),
		queryDuration:   b.Histogram("db_query_duration_seconds", "Database query latency", "s", DBDurationBuckets...),
		slowQueries:     b.Counter("db_slow_query_total", "Queries slower than the threshold", "{query}"),
		config:          cfg,
		logger:          logger,
		stopCh:          make(chan struct{}),
	}
	if err := b.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Register installs query callbacks on db.
func (m *DBMetrics) Register(db *gorm.DB) error {
	return registerAround(db, "otel_metrics", markQueryStart, func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		elapsed, ok := queryElapsed(ctx)
		if !ok {
			return
		}
		m.RecordQuery(ctx, operationOf(db.Statement.SQL.String()), db.Statement.Table, elapsed, db.Error)
	})
}

// RecordQuery records one executed statement.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	status := "ok"
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		status = "error"
	}
	op, tbl := AttrDBOperation.String(operation), AttrDBTable.String(table)
	m.queries.Add(ctx, 1, Attrs(op, tbl, AttrDBStatus.String(status)))
	m.queryDuration.Record(ctx, duration.Seconds(), Attrs(op, tbl))
	if duration > m.config.SlowQueryThreshold {
		m.slowQueries.Add(ctx, 1, Attrs(op, tbl))
	}
}

// StartPoolStats samples sqlDB pool statistics until Stop is called.
func (m *DBMetrics) StartPoolStats(ctx context.Context, sqlDB *sql.DB) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()
		m.recordPoolStats(ctx, sqlDB)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.recordPoolStats(ctx, sqlDB)
			}
		}
	}()
}

func (m *DBMetrics) recordPoolStats(ctx context.Context, sqlDB *sql.DB) {
	stats := sqlDB.Stats()
	for state, n := range map[string]int{
		"in_use": stats.InUse,
		"idle":   stats.Idle,
		"max":    stats.MaxOpenConnections,
	} {
		m.poolConnections.Record(ctx, int64(n), Attrs(AttrDBState.String(state)))
	}
}

// Stop ends pool sampling. It is safe to call more than once.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

// operationOf returns the leading SQL verb of a statement
func operationOf(statement string) string {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	switch op := strings.ToUpper(fields[0]); op {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return op
	default:
		return "OTHER"
	}
}
