// Package client holds the connections the CLI uses to reach a ledger: the
// gRPC connection carrying transactions and the REST client used for status.
package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// GRPCClient bundles a connection with the context its calls run under.
type GRPCClient struct {
	Conn grpc.ClientConnInterface
	Ctx  context.Context
}

// WithContext returns a copy of c whose calls run under ctx.
func (c *GRPCClient) WithContext(ctx context.Context) *GRPCClient {
	return &GRPCClient{Conn: c.Conn, Ctx: ctx}
}

// NewGRPCClient dials address. TLS is used unless insecureConn is set.
func NewGRPCClient(ctx context.Context, address string, insecureConn bool, opts ...grpc.DialOption) (*GRPCClient, *grpc.ClientConn, error) {
	var creds credentials.TransportCredentials
	if insecureConn {
		creds = insecure.NewCredentials()
	} else {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gRPC client for %s: %w", address, err)
	}
	slog.Debug("Created gRPC client", "address", address, "insecure", insecureConn)
	return &GRPCClient{Conn: conn, Ctx: ctx}, conn, nil
}
