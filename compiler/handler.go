package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"

	"connectrpc.com/connect"

	"github.com/chazu/semigrafx/rpc"
)

// Func compiles source into factory text. Errors wrapping ErrCompile are
// reported to callers as rejected source.
type Func func(ctx context.Context, source string) (string, error)

// Compile calls f(ctx, source).
func (f Func) Compile(ctx context.Context, source string) (string, error) {
	return f(ctx, source)
}

// Handler mounts fn behind the compile procedure. It returns the path to
// register on a mux.
func Handler(fn Func, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(rpc.Codec{}),
		connect.WithCodec(rpc.ProtoCodec{}),
	}, opts...)
	return rpc.CompileProcedure, connect.NewUnaryHandler(
		rpc.CompileProcedure,
		func(ctx context.Context, req *connect.Request[rpc.CompileRequest]) (*connect.Response[rpc.CompileResponse], error) {
			if strings.TrimSpace(req.Msg.Source) == "" {
				return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
			}
			factory, err := fn(ctx, req.Msg.Source)
			if err != nil {
				if errors.Is(err, ErrCompile) {
					return nil, connect.NewError(connect.CodeInvalidArgument, err)
				}
				return nil, connect.NewError(connect.CodeInternal, err)
			}
			return connect.NewResponse(&rpc.CompileResponse{Factory: factory}), nil
		},
		opts...,
	)
}

// Command returns a Func that runs an external compiler with the source on
// stdin and reads factory text from stdout. A non-zero exit is reported as
// ErrCompile with the command's stderr.
func Command(name string, args ...string) Func {
	return func(ctx context.Context, source string) (string, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = strings.NewReader(source)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return "", fmt.Errorf("%w: %s", ErrCompile, strings.TrimSpace(stderr.String()))
			}
			return "", fmt.Errorf("running %s: %w", name, err)
		}
		return stdout.String(), nil
	}
}
