// Package monitoring submits shadowed request/response pairs to the
// monitoring service over gRPC.
package monitoring

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Hydrospheredata/hydro-serving-integrations/pkg/monitoringpb"
)

// Analyzer accepts execution records for analysis.
type Analyzer interface {
	Analyze(ctx context.Context, info *monitoringpb.ExecutionInformation) error
}

// Client is a gRPC monitoring client.
type Client struct {
	conn *grpc.ClientConn
	svc  monitoringpb.MonitoringServiceClient
}

// ParseTarget derives the gRPC target from the registry endpoint URI. The
// target is the URI host; https selects TLS.
func ParseTarget(endpoint string) (target string, secure bool, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse monitoring endpoint: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("monitoring endpoint %q has no host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

// Dial opens a channel to the monitoring service behind endpoint. Calls use
// the "json" content-subtype of monitoringpb.Codec, so only servers that
// register that codec can answer; a protobuf MonitoringService cannot
// decode these messages.
func Dial(endpoint string, opts ...grpc.DialOption) (*Client, error) {
	target, secure, err := ParseTarget(endpoint)
	if err != nil {
		return nil, err
	}

	creds := insecure.NewCredentials()
	if secure {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial monitoring %s: %w", target, err)
	}
	return &Client{conn: conn, svc: monitoringpb.NewMonitoringServiceClient(conn)}, nil
}

// Analyze submits one execution record.
func (c *Client) Analyze(ctx context.Context, info *monitoringpb.ExecutionInformation) error {
	if _, err := c.svc.Analyze(ctx, info); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}

// Close releases the channel.
func (c *Client) Close() error {
	return c.conn.Close()
}
