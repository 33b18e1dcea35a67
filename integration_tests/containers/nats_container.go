// Package containers starts throwaway broker instances for integration
// tests.
package containers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupNatsContainer starts a NATS testcontainer and returns the container
// instance and the client connection URL. The caller terminates the
// container when done.
func SetupNatsContainer(ctx context.Context) (*nats.NATSContainer, string, error) {
	return setupNatsContainer(ctx)
}

// SetupNatsContainerWithConfig starts a NATS testcontainer running the given
// server configuration, for scenarios that need accounts or auth callout
// wired on the broker side.
func SetupNatsContainerWithConfig(ctx context.Context, serverConfig string) (*nats.NATSContainer, string, error) {
	return setupNatsContainer(ctx, nats.WithConfigFile(strings.NewReader(serverConfig)))
}

func setupNatsContainer(ctx context.Context, opts ...testcontainers.ContainerCustomizer) (*nats.NATSContainer, string, error) {
	opts = append(opts,
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("Server is ready"),
				wait.ForListeningPort("4222/tcp"),
			).WithDeadline(45*time.Second),
		),
	)
	natsContainer, err := nats.Run(ctx, "nats:2.10-alpine", opts...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start NATS container: %w", err)
	}

	natsURL, err := natsContainer.ConnectionString(ctx)
	if err != nil {
		if terminateErr := natsContainer.Terminate(ctx); terminateErr != nil {
			return nil, "", fmt.Errorf("failed to get connection string (%w) and to terminate container (%v)", err, terminateErr)
		}
		return nil, "", fmt.Errorf("failed to get NATS connection string: %w", err)
	}

	return natsContainer, natsURL, nil
}
