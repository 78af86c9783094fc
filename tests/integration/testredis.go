//go:build integration

package integration

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fieldbook/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisContainer   testcontainers.Container
	redisContainerMu sync.Mutex
	redisConfig      config.RedisConfig
)

// NewTestRedis returns the config of a shared Redis container. Each call
// gets its own logical database so tests do not see each other's keys.
func NewTestRedis(t *testing.T, db int) config.RedisConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	redisContainerMu.Lock()
	defer redisContainerMu.Unlock()

	if redisContainer == nil {
		ctx := context.Background()
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			},
			Started: true,
		})
		require.NoError(t, err, "Failed to start Redis container")

		host, err := container.Host(ctx)
		require.NoError(t, err)
		port, err := container.MappedPort(ctx, "6379/tcp")
		require.NoError(t, err)
		portNum, err := strconv.Atoi(port.Port())
		require.NoError(t, err)

		redisContainer = container
		redisConfig = config.RedisConfig{Host: host, Port: portNum}
	}

	cfg := redisConfig
	cfg.DB = db
	return cfg
}

func terminateRedis(ctx context.Context) {
	redisContainerMu.Lock()
	defer redisContainerMu.Unlock()
	if redisContainer != nil {
		_ = redisContainer.Terminate(ctx)
		redisContainer = nil
	}
}
