package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDBMetrics_Defaults(t *testing.T) {
	_, provider := newTestMeter(t)
	m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, m.config.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, m.config.PoolStatsInterval)
	assert.NotNil(t, m.logger)
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	reader, provider := newTestMeter(t)
	m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{SlowQueryThreshold: 100 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordQuery(ctx, "SELECT", "invoices", 10*time.Millisecond, nil)
	m.RecordQuery(ctx, "UPDATE", "invoices", 300*time.Millisecond, errors.New("deadlock"))

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumTotal(t, rm, "db_query_total"))
	assert.Equal(t, int64(1), sumTotal(t, rm, "db_slow_query_total"))
}

func TestDBMetrics_Register(t *testing.T) {
	reader, provider := newTestMeter(t)
	m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{}, zap.NewNop())
	require.NoError(t, err)

	db := setupTestDB(t)
	require.NoError(t, m.Register(db))
	require.NoError(t, db.Create(&tracedRow{Name: "deck"}).Error)

	rm := collect(t, reader)
	assert.GreaterOrEqual(t, sumTotal(t, rm, "db_query_total"), int64(1))
}

func TestDBMetrics_PoolStats(t *testing.T) {
	reader, provider := newTestMeter(t)
	m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{PoolStatsInterval: time.Hour}, zap.NewNop())
	require.NoError(t, err)

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(7)

	m.StartPoolStats(context.Background(), sqlDB)
	require.Eventually(t, func() bool {
		_, ok := findMetric(collect(t, reader), "db_pool_connections")
		return ok
	}, time.Second, 10*time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestOperationOf(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM invoices":   "SELECT",
		"  insert into estimates":  "INSERT",
		"UPDATE change_orders SET": "UPDATE",
		"DELETE FROM attachments":  "DELETE",
		"SAVEPOINT sp1":            "OTHER",
		"":                         "UNKNOWN",
	}
	for statement, want := range tests {
		assert.Equal(t, want, operationOf(statement), statement)
	}
}
