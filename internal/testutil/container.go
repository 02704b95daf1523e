package testutil

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Images can be overridden to test against other server versions.
const (
	defaultPostgresImage = "postgres:16-alpine"
	defaultMailpitImage  = "axllent/mailpit:v1.21"
)

// PostgresContainer is a running PostgreSQL server with an empty meetups database.
type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnectionString string
}

// MailpitContainer is a running Mailpit: an SMTP sink with a REST API.
type MailpitContainer struct {
	testcontainers.Container
	SMTPHost string
	SMTPPort int
	APIHost  string
	APIPort  int
}

func image(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

// NewPostgresContainer starts PostgreSQL. The image comes from
// MEETUPS_TEST_POSTGRES_IMAGE when set.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.Run(ctx,
		image("MEETUPS_TEST_POSTGRES_IMAGE", defaultPostgresImage),
		postgres.WithDatabase("meetups"),
		postgres.WithUsername("meetups"),
		postgres.WithPassword("meetups"),
		testcontainers.WithWaitStrategy(
			// postgres restarts once after init, so the line shows up twice
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		ConnectionString:  connStr,
	}, nil
}

// NewMailpitContainer starts Mailpit. The image comes from
// MEETUPS_TEST_MAILPIT_IMAGE when set.
func NewMailpitContainer(ctx context.Context) (*MailpitContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image("MEETUPS_TEST_MAILPIT_IMAGE", defaultMailpitImage),
			ExposedPorts: []string{"1025/tcp", "8025/tcp"},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("1025/tcp"),
				wait.ForHTTP("/api/v1/info").WithPort("8025/tcp"),
			).WithDeadline(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start mailpit container: %w", err)
	}

	mc := &MailpitContainer{Container: container}
	if err := mc.resolve(ctx); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	return mc, nil
}

func (m *MailpitContainer) resolve(ctx context.Context) error {
	host, err := m.Host(ctx)
	if err != nil {
		return fmt.Errorf("get mailpit host: %w", err)
	}

	smtpPort, err := m.MappedPort(ctx, "1025/tcp")
	if err != nil {
		return fmt.Errorf("get smtp port: %w", err)
	}

	apiPort, err := m.MappedPort(ctx, "8025/tcp")
	if err != nil {
		return fmt.Errorf("get api port: %w", err)
	}

	m.SMTPHost, m.SMTPPort = host, smtpPort.Int()
	m.APIHost, m.APIPort = host, apiPort.Int()
	return nil
}
