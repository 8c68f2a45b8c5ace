//go:build integration

package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	postgresOnce      sync.Once
	postgresContainer *Container
	postgresErr       error

	redisOnce      sync.Once
	redisContainer *Container
	redisErr       error
)

const (
	PostgresUser     = "finvault"
	PostgresPassword = "finvault"
	PostgresDB       = "finvault_test"
)

// Container is a started testcontainer shared by the whole test process.
type Container struct {
	container testcontainers.Container
	Host      string
	Port      int
}

// StartPostgres starts one postgres container per process.
func StartPostgres(t *testing.T) *Container {
	t.Helper()

	postgresOnce.Do(func() {
		postgresContainer, postgresErr = start(testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     PostgresUser,
				"POSTGRES_PASSWORD": PostgresPassword,
				"POSTGRES_DB":       PostgresDB,
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(90 * time.Second),
		}, "5432/tcp")
	})

	if postgresErr != nil {
		t.Fatalf("postgres container failed: %v", postgresErr)
	}

	return postgresContainer
}

// StartRedis starts one redis container per process.
func StartRedis(t *testing.T) *Container {
	t.Helper()

	redisOnce.Do(func() {
		redisContainer, redisErr = start(testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("6379/tcp"),
				wait.ForLog("Ready to accept connections"),
			).WithDeadline(60 * time.Second),
		}, "6379/tcp")
	})

	if redisErr != nil {
		t.Fatalf("redis container failed: %v", redisErr)
	}

	return redisContainer
}

func start(req testcontainers.ContainerRequest, port string) (*Container, error) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start %s container: %w", req.Image, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("get %s host: %w", req.Image, err)
	}

	mappedPort, err := container.MappedPort(ctx, port)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("get %s port: %w", req.Image, err)
	}

	return &Container{container: container, Host: host, Port: mappedPort.Int()}, nil
}

// Cleanup terminates the container.
func (c *Container) Cleanup() {
	if c != nil && c.container != nil {
		_ = c.container.Terminate(context.Background())
	}
}
