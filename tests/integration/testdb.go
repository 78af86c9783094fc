//go:build integration

// Package integration runs the API and repositories against real PostgreSQL
// and Redis containers started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fieldbook/backend/internal/infrastructure/config"
	"github.com/fieldbook/backend/internal/infrastructure/migration"
	"github.com/fieldbook/backend/internal/infrastructure/persistence"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// postgresContainer is started once per package run and reused by every
// test; each test truncates the tables instead of migrating again
var postgresContainer struct {
	once      sync.Once
	container testcontainers.Container
	dsn       string
	err       error
}

// TestDB is a migrated, empty database for one test
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

// NewTestDB connects to the shared container and empties every table
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	postgresContainer.once.Do(func() {
		postgresContainer.container, postgresContainer.dsn, postgresContainer.err = startPostgres(context.Background())
	})
	require.NoError(t, postgresContainer.err, "start postgres container")

	db, sqlDB := connectToDatabase(t, postgresContainer.dsn)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tdb := &TestDB{DB: db, SqlDB: sqlDB, DSN: postgresContainer.dsn, t: t}
	tdb.CleanTables()
	return tdb
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("fieldbook_test"),
		tcpostgres.WithUsername("fieldbook"),
		tcpostgres.WithPassword("fieldbook"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return nil, "", err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", err
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return container, "", err
	}
	defer sqlDB.Close()
	m, err := migration.New(sqlDB, zap.NewNop())
	if err != nil {
		return container, "", fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil {
		return container, "", fmt.Errorf("migrate: %w", err)
	}
	return container, dsn, nil
}

// terminatePostgres stops the shared container if a test started it
func terminatePostgres(ctx context.Context) {
	if postgresContainer.container != nil {
		_ = postgresContainer.container.Terminate(ctx)
	}
}

// CleanTables truncates every application table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	require.NoError(tdb.t, tdb.DB.Raw(
		`SELECT tablename FROM pg_tables WHERE schemaname = 'public' AND tablename <> 'schema_migrations'`,
	).Scan(&tables).Error)
	if len(tables) == 0 {
		return
	}
	require.NoError(tdb.t, tdb.DB.Exec("TRUNCATE TABLE "+strings.Join(tables, ", ")+" CASCADE").Error)
}

func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormLog := logger.Default.LogMode(logger.Silent)
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormLog = logger.Default.LogMode(logger.Info)
	}

	db, err := persistence.Open(gormpostgres.Open(dsn), &config.DatabaseConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}, gormLog)
	require.NoError(t, err, "connect to test database")

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	return db.DB, sqlDB
}
