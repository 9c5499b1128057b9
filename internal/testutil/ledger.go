// Package testutil starts in-process ledgers for tests.
package testutil

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/manifest-network/mediaproof/internal/client"
	"github.com/manifest-network/mediaproof/internal/clock"
	"github.com/manifest-network/mediaproof/internal/ledger"
	"github.com/manifest-network/mediaproof/internal/output/memory"
	"github.com/manifest-network/mediaproof/internal/programs"
	"github.com/manifest-network/mediaproof/internal/transport/grpcserver"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

// Now is the fixed ledger clock of NewLedger.
var Now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// NewLedger returns a ledger backed by a fresh memory store.
func NewLedger(t *testing.T) (*ledger.Ledger, *memory.Handler) {
	t.Helper()
	store := memory.New()
	l := ledger.New(store, programs.DefaultWorkspace(), ledger.Config{
		GenesisSeed: "testutil",
		Clock:       clock.NewFixed(Now),
	})
	return l, store
}

// StartGRPC serves l over an in-memory listener and returns a connected
// client. Both are shut down when the test ends.
func StartGRPC(t *testing.T, l *ledger.Ledger) *client.GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpcserver.NewGRPCServer(l)
	go func() {
		_ = srv.Serve(lis)
	}()

	c, conn, err := client.NewGRPCClient(context.Background(), "passthrough:///bufnet", true,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
	})
	return c
}
