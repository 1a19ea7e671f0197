// Package testutil starts throwaway backing services for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// IntegrationEnv must be set to "1" for container backed tests to run.
const IntegrationEnv = "SANDBOX_INTEGRATION"

// SkipUnlessIntegration skips t unless IntegrationEnv is enabled.
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv(IntegrationEnv) != "1" {
		t.Skipf("set %s=1 to run container backed tests", IntegrationEnv)
	}
}

// StartPostgresContainer returns a DSN for a fresh PostgreSQL database.
func StartPostgresContainer(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	postgresC, err := testcontainers.Run(
		ctx, "postgres:16",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				// the entrypoint restarts postgres once after initdb
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2*time.Minute),
		),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "sandbox",
			"POSTGRES_PASSWORD": "sandbox",
			"POSTGRES_DB":       "sandbox_test",
		}),
	)
	testcontainers.CleanupContainer(t, postgresC)
	require.NoError(t, err)

	endpoint, err := postgresC.Endpoint(ctx, "")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://sandbox:sandbox@%s/sandbox_test?sslmode=disable", endpoint)
}

// StartRedisContainer returns the host:port of a fresh Redis server.
func StartRedisContainer(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	redisC, err := testcontainers.Run(
		ctx, "redis:7",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections"),
		),
	)
	testcontainers.CleanupContainer(t, redisC)
	require.NoError(t, err)

	endpoint, err := redisC.Endpoint(ctx, "")
	require.NoError(t, err)

	return endpoint
}

// StartRabbitMQContainer returns an AMQP URL for a fresh RabbitMQ broker.
func StartRabbitMQContainer(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	rabbitC, err := testcontainers.Run(
		ctx, "rabbitmq:3.13",
		testcontainers.WithExposedPorts("5672/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5672/tcp"),
			wait.ForLog("Server startup complete"),
		),
	)
	testcontainers.CleanupContainer(t, rabbitC)
	require.NoError(t, err)

	endpoint, err := rabbitC.Endpoint(ctx, "")
	require.NoError(t, err)

	return fmt.Sprintf("amqp://guest:guest@%s/", endpoint)
}
