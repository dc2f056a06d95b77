package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/chazu/semigrafx/catalog"
	"github.com/chazu/semigrafx/compiler"
	"github.com/chazu/semigrafx/rpc"
	"github.com/chazu/semigrafx/vm"
	"github.com/chazu/semigrafx/vm/script"
	"github.com/chazu/semigrafx/vm/wire"
)

// DisplayService exposes sessions over Connect and gRPC. Factory
// resolution (which may call the compile endpoint) happens on the caller's
// goroutine; everything that touches a host runs on the worker.
//
// Program faults do not fail the call: the session halts and the fault is
// reported in FrameResponse.Error. RPC errors are reserved for bad
// requests and unknown sessions.
type DisplayService struct {
	worker      *Worker
	sessions    *SessionStore
	loader      *catalog.Loader
	sessionOpts []vm.SessionOption
}

// NewDisplayService creates a DisplayService.
func NewDisplayService(worker *Worker, sessions *SessionStore, loader *catalog.Loader, opts ...vm.SessionOption) *DisplayService {
	return &DisplayService{
		worker:      worker,
		sessions:    sessions,
		loader:      loader,
		sessionOpts: opts,
	}
}

// Mount registers every procedure on mux.
func (d *DisplayService) Mount(mux *http.ServeMux, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(rpc.Codec{}),
		connect.WithCodec(rpc.ProtoCodec{}),
	}, opts...)
	mux.Handle(rpc.CreateSessionProcedure, connect.NewUnaryHandler(rpc.CreateSessionProcedure, d.CreateSession, opts...))
	mux.Handle(rpc.DestroySessionProcedure, connect.NewUnaryHandler(rpc.DestroySessionProcedure, d.DestroySession, opts...))
	mux.Handle(rpc.PointerDownProcedure, connect.NewUnaryHandler(rpc.PointerDownProcedure, d.PointerDown, opts...))
	mux.Handle(rpc.KeyDownProcedure, connect.NewUnaryHandler(rpc.KeyDownProcedure, d.KeyDown, opts...))
	mux.Handle(rpc.FrameProcedure, connect.NewUnaryHandler(rpc.FrameProcedure, d.Frame, opts...))
	mux.Handle(rpc.SnapshotProcedure, connect.NewUnaryHandler(rpc.SnapshotProcedure, d.Snapshot, opts...))
	mux.Handle(rpc.RecompileProcedure, connect.NewUnaryHandler(rpc.RecompileProcedure, d.Recompile, opts...))
}

// CreateSession resolves a program, starts it and returns its first frame.
func (d *DisplayService) CreateSession(
	ctx context.Context,
	req *connect.Request[rpc.CreateSessionRequest],
) (*connect.Response[rpc.FrameResponse], error) {
	msg := req.Msg
	selected := 0
	for _, s := range []string{msg.Program, msg.Source, msg.Factory} {
		if s != "" {
			selected++
		}
	}
	if selected != 1 {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("exactly one of program, source or factory is required"))
	}

	label := msg.Program
	if label == "" {
		label = "inline"
	}
	name := msg.Name
	if name == "" {
		name = label
	}

	factory, err := d.resolve(ctx, name, msg)
	if err != nil {
		return nil, toConnect(err)
	}

	opts := d.sessionOpts
	if msg.Seed != 0 {
		opts = append(append([]vm.SessionOption{}, opts...), vm.WithSeed(msg.Seed))
	}
	host := vm.NewHost(factory, vm.WithName(name), vm.WithSessionOptions(opts...))

	if _, err := run(d.worker, func() (struct{}, error) {
		return struct{}{}, host.Start()
	}); err != nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("starting %s: %w", name, err))
	}

	session := d.sessions.Create(name, label, host)
	session.opts = opts
	return d.respond(session, func() (bool, error) { return false, nil })
}

func (d *DisplayService) resolve(ctx context.Context, name string, msg *rpc.CreateSessionRequest) (vm.Factory, error) {
	switch {
	case msg.Factory != "":
		return d.loader.LoadFactory(name, msg.Factory)
	case msg.Source != "":
		text, err := d.loader.Compile(ctx, msg.Source)
		if err != nil {
			return nil, err
		}
		return d.loader.LoadFactory(name, text)
	}
	return d.loader.Load(ctx, msg.Program)
}

// DestroySession tears a session down.
func (d *DisplayService) DestroySession(
	ctx context.Context,
	req *connect.Request[rpc.SessionRequest],
) (*connect.Response[emptypb.Empty], error) {
	if req.Msg.SessionID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("sessionId is required"))
	}
	if !d.sessions.Destroy(req.Msg.SessionID) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", req.Msg.SessionID))
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// PointerDown forwards a pointer-down through the session's dispatcher.
func (d *DisplayService) PointerDown(
	ctx context.Context,
	req *connect.Request[rpc.PointerRequest],
) (*connect.Response[rpc.FrameResponse], error) {
	session, err := d.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	ev := vm.PointerEvent{Row: req.Msg.Row, Col: req.Msg.Col, Shift: req.Msg.Shift, Alt: req.Msg.Alt}
	return d.respond(session, func() (bool, error) {
		return session.dispatcher.PointerDown(ev)
	})
}

// KeyDown forwards a key-down through the session's dispatcher.
func (d *DisplayService) KeyDown(
	ctx context.Context,
	req *connect.Request[rpc.KeyRequest],
) (*connect.Response[rpc.FrameResponse], error) {
	session, err := d.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	ev := vm.KeyEvent{KeyCode: m.KeyCode, Shift: m.Shift, Alt: m.Alt, Meta: m.Meta, Ctrl: m.Ctrl}
	return d.respond(session, func() (bool, error) {
		return session.dispatcher.KeyDown(ev)
	})
}

// Frame returns the current frame without dispatching anything.
func (d *DisplayService) Frame(
	ctx context.Context,
	req *connect.Request[rpc.SessionRequest],
) (*connect.Response[rpc.FrameResponse], error) {
	session, err := d.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	return d.respond(session, func() (bool, error) { return false, nil })
}

// Snapshot returns a CBOR snapshot of the session.
func (d *DisplayService) Snapshot(
	ctx context.Context,
	req *connect.Request[rpc.SessionRequest],
) (*connect.Response[rpc.SnapshotResponse], error) {
	session, err := d.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	data, err := run(d.worker, func() ([]byte, error) {
		return wire.MarshalSnapshot(wire.Capture(session.host))
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&rpc.SnapshotResponse{SessionID: session.ID, Data: data}), nil
}

// Recompile compiles new source and restarts the session with it. The old
// host is torn down only once the new factory is loaded, so a compile
// error leaves the session as it was.
func (d *DisplayService) Recompile(
	ctx context.Context,
	req *connect.Request[rpc.RecompileRequest],
) (*connect.Response[rpc.FrameResponse], error) {
	session, err := d.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	if req.Msg.Source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}
	factory, err := d.resolve(ctx, session.Name, &rpc.CreateSessionRequest{Source: req.Msg.Source})
	if err != nil {
		return nil, toConnect(err)
	}

	log.Infof("recompiling session %s", session.ID)
	return d.respond(session, func() (bool, error) {
		session.host.Teardown()
		session.host = vm.NewHost(factory, vm.WithName(session.Name), vm.WithSessionOptions(session.opts...))
		session.dispatcher = vm.NewDispatcher(session.host)
		return false, session.host.Start()
	})
}

func (d *DisplayService) session(id string) (*Session, error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("sessionId is required"))
	}
	session, ok := d.sessions.Get(id)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", id))
	}
	return session, nil
}

// respond runs fn on the worker and builds the frame response from the
// session state afterwards.
func (d *DisplayService) respond(session *Session, fn func() (bool, error)) (*connect.Response[rpc.FrameResponse], error) {
	resp, err := run(d.worker, func() (*rpc.FrameResponse, error) {
		consumed, err := fn()
		return frameResponse(session, consumed, err), nil
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(resp), nil
}

// frameResponse must be called on the worker goroutine.
func frameResponse(session *Session, consumed bool, err error) *rpc.FrameResponse {
	h := session.host
	resp := &rpc.FrameResponse{
		SessionID: session.ID,
		State:     h.State().String(),
		Consumed:  consumed,
		MouseDown: h.Capabilities().MouseDown,
		KeyDown:   h.Capabilities().KeyDown,
		Codes:     make([]int32, vm.GridCells),
	}
	frame := h.Frame()
	if frame == nil {
		frame = h.Refresh()
	}
	for i, at := range frame {
		resp.Codes[i] = at.Code()
	}
	if err == nil {
		err = h.Err()
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// toConnect maps program resolution errors to Connect codes.
func toConnect(err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, catalog.ErrProgramNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, compiler.ErrCompile):
		code = connect.CodeInvalidArgument
	case errors.Is(err, compiler.ErrUnavailable):
		code = connect.CodeUnavailable
	case errors.Is(err, script.ErrSyntax):
		code = connect.CodeInvalidArgument
	case errors.Is(err, catalog.ErrNoCompiler):
		code = connect.CodeFailedPrecondition
	}
	return connect.NewError(code, err)
}
