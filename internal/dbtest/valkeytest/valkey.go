// Package valkeytest starts a throwaway Valkey container for backend tests.
package valkeytest

import (
	"context"
	"net"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	valkeycontainer "github.com/testcontainers/testcontainers-go/modules/valkey"

	"github.com/sopatech/hiddengems/internal/infra"
)

const image = "valkey/valkey:8-alpine"

// Start runs a Valkey container and returns a connected client. The container and client are
// released when the test ends. Skipped under -short.
func Start(t *testing.T) valkey.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("valkey container tests skipped in -short mode")
	}
	ctx := context.Background()

	container, err := valkeycontainer.Run(ctx, image)
	require.NoError(t, err, "start valkey container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate valkey container: %v", err)
		}
	})

	port, err := container.MappedPort(ctx, nat.Port("6379"))
	require.NoError(t, err, "map valkey port")

	client, err := infra.NewValkey(net.JoinHostPort("localhost", port.Port()))
	require.NoError(t, err, "valkey client")
	t.Cleanup(client.Close)
	return client
}
