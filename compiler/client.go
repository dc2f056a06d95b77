// Package compiler talks to the compile endpoint: the collaborator that
// turns program source into factory text. It provides a Connect client, a
// gRPC client and a handler for serving a compile function behind the same
// procedure.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/chazu/semigrafx/manifest"
	"github.com/chazu/semigrafx/rpc"
)

var log = commonlog.GetLogger("semigrafx.compiler")

var (
	// ErrCompile indicates the endpoint rejected the source.
	ErrCompile = errors.New("compile error")

	// ErrUnavailable indicates the endpoint could not be reached.
	ErrUnavailable = errors.New("compiler unavailable")
)

// Client sends source to a compile endpoint.
type Client struct {
	endpoint string
	timeout  time.Duration
	call     func(context.Context, *rpc.CompileRequest) (*rpc.CompileResponse, error)
	close    func() error
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each Compile call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the endpoint and transport named in the
// manifest.
func New(m *manifest.Manifest) (*Client, error) {
	if m.Compiler.Endpoint == "" {
		return nil, fmt.Errorf("%w: no compiler endpoint configured", ErrUnavailable)
	}
	opts := []Option{WithTimeout(m.CompileTimeout())}
	switch m.Compiler.Transport {
	case manifest.TransportGRPC:
		return NewGRPCClient(m.Compiler.Endpoint, opts...)
	default:
		return NewConnectClient(http.DefaultClient, m.Compiler.Endpoint, opts...), nil
	}
}

// NewConnectClient creates a client speaking the Connect protocol with
// JSON bodies.
func NewConnectClient(httpClient connect.HTTPClient, baseURL string, opts ...Option) *Client {
	client := connect.NewClient[rpc.CompileRequest, rpc.CompileResponse](
		httpClient,
		baseURL+rpc.CompileProcedure,
		connect.WithCodec(rpc.Codec{}),
	)
	c := &Client{
		endpoint: baseURL,
		call: func(ctx context.Context, req *rpc.CompileRequest) (*rpc.CompileResponse, error) {
			resp, err := client.CallUnary(ctx, connect.NewRequest(req))
			if err != nil {
				return nil, fromConnect(err)
			}
			return resp.Msg, nil
		},
		close: func() error { return nil },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewGRPCClient creates a client speaking gRPC over cleartext HTTP/2.
// endpoint may be host:port or an http URL.
func NewGRPCClient(endpoint string, opts ...Option) (*Client, error) {
	target := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		target = u.Host
	}
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, err)
	}
	c := &Client{
		endpoint: endpoint,
		call: func(ctx context.Context, req *rpc.CompileRequest) (*rpc.CompileResponse, error) {
			resp := new(rpc.CompileResponse)
			if err := conn.Invoke(ctx, rpc.CompileProcedure, req, resp, grpc.ForceCodec(rpc.ProtoCodec{})); err != nil {
				return nil, fromGRPC(err)
			}
			return resp, nil
		},
		close: conn.Close,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Compile sends source and returns the factory text.
func (c *Client) Compile(ctx context.Context, source string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := c.call(ctx, &rpc.CompileRequest{Source: source})
	if err != nil {
		log.Warningf("compile via %s failed: %s", c.endpoint, err)
		return "", err
	}
	log.Debugf("compiled %d bytes in %s", len(source), time.Since(start))
	if resp.Factory == "" {
		return "", fmt.Errorf("%w: endpoint returned no factory", ErrCompile)
	}
	return resp.Factory, nil
}

// Close releases the client's connection.
func (c *Client) Close() error {
	return c.close()
}

func fromConnect(err error) error {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	switch connectErr.Code() {
	case connect.CodeInvalidArgument:
		return fmt.Errorf("%w: %s", ErrCompile, connectErr.Message())
	case connect.CodeUnavailable, connect.CodeDeadlineExceeded, connect.CodeUnimplemented:
		return fmt.Errorf("%w: %s", ErrUnavailable, connectErr.Message())
	}
	return err
}

func fromGRPC(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrCompile, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded, codes.Unimplemented:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	}
	return err
}
