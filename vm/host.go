package vm

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("semigrafx.vm")

// Host errors.
var (
	ErrNoInit       = errors.New("program has no init")
	ErrNotRunning   = errors.New("host is not running")
	ErrHalted       = errors.New("session halted")
	ErrAlreadyStart = errors.New("host already started")
)

// HostState is the lifecycle state of a Host.
type HostState int

const (
	Uninitialized HostState = iota
	Running
	Terminated
)

func (s HostState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("HostState(%d)", int(s))
}

// Host runs one program instance against one session. It invokes the
// factory once, calls init, and afterwards sequences input capabilities,
// refreshing the screen after each. Calls are synchronous; the host does
// no locking and must be driven from a single goroutine.
type Host struct {
	name    string
	factory Factory
	session *Session
	lib     *Library
	mapper  *ScreenMapper
	target  RenderTarget

	program *Program
	caps    Capabilities
	state   HostState
	fault   error
	frame   *Frame
}

// HostOption configures a Host.
type HostOption func(*hostConfig)

type hostConfig struct {
	name        string
	target      RenderTarget
	sessionOpts []SessionOption
}

// WithName labels the host in log output and snapshots.
func WithName(name string) HostOption {
	return func(c *hostConfig) { c.name = name }
}

// WithTarget sets the render target refreshed after init and each event.
func WithTarget(target RenderTarget) HostOption {
	return func(c *hostConfig) { c.target = target }
}

// WithSessionOptions passes options to the session the host creates.
func WithSessionOptions(opts ...SessionOption) HostOption {
	return func(c *hostConfig) { c.sessionOpts = append(c.sessionOpts, opts...) }
}

// NewHost creates an uninitialized host for factory.
func NewHost(factory Factory, opts ...HostOption) *Host {
	cfg := &hostConfig{name: "program"}
	for _, opt := range opts {
		opt(cfg)
	}
	session := NewSession(cfg.sessionOpts...)
	return &Host{
		name:    cfg.name,
		factory: factory,
		session: session,
		lib:     NewLibrary(session),
		mapper:  NewScreenMapper(session),
		target:  cfg.target,
		state:   Uninitialized,
	}
}

// Start moves the host from Uninitialized to Running: the factory is
// invoked once with the library, then init runs and the screen is
// refreshed. A failure of either is fatal to the session.
func (h *Host) Start() error {
	if h.state != Uninitialized || h.fault != nil {
		return fmt.Errorf("%w: state %s", ErrAlreadyStart, h.state)
	}
	log.Infof("starting %s", h.name)

	var program *Program
	err := h.guard("factory", func() error {
		var err error
		program, err = h.factory(h.lib)
		return err
	})
	if err == nil && (program == nil || program.Init == nil) {
		err = ErrNoInit
	}
	if err != nil {
		return h.halt("factory", err)
	}
	h.program = program
	h.caps = program.capabilities()

	if err := h.guard("init", program.Init); err != nil {
		return h.halt("init", err)
	}
	h.state = Running
	h.refresh()
	log.Noticef("%s running (mousedown=%t keydown=%t)", h.name, h.caps.MouseDown, h.caps.KeyDown)
	return nil
}

// MouseDown forwards a pointer-down on slot (row, col) to the program.
func (h *Host) MouseDown(row, col int, shift, alt bool) error {
	if err := h.ready(); err != nil {
		return err
	}
	if !h.caps.MouseDown {
		return nil
	}
	log.Debugf("%s mousedown row=%d col=%d shift=%t alt=%t", h.name, row, col, shift, alt)
	if err := h.guard("mousedown", func() error {
		return h.program.MouseDown(row, col, shift, alt)
	}); err != nil {
		return h.halt("mousedown", err)
	}
	h.refresh()
	return nil
}

// KeyDown forwards an accepted key to the program.
func (h *Host) KeyDown(keyCode int, shift, alt bool) error {
	if err := h.ready(); err != nil {
		return err
	}
	if !h.caps.KeyDown {
		return nil
	}
	log.Debugf("%s keydown code=%d shift=%t alt=%t", h.name, keyCode, shift, alt)
	if err := h.guard("keydown", func() error {
		return h.program.KeyDown(keyCode, shift, alt)
	}); err != nil {
		return h.halt("keydown", err)
	}
	h.refresh()
	return nil
}

// Teardown terminates the session. It is the only way to reach
// Terminated; a recompile tears down the old host and starts a new one.
func (h *Host) Teardown() {
	if h.state == Terminated {
		return
	}
	log.Infof("tearing down %s", h.name)
	h.state = Terminated
	h.program = nil
}

// Refresh recomputes the frame and pushes it to the render target.
func (h *Host) Refresh() *Frame {
	h.refresh()
	return h.frame
}

func (h *Host) refresh() {
	h.frame = h.mapper.Refresh(h.target)
}

// SetTarget replaces the render target and pushes the current frame to it.
func (h *Host) SetTarget(target RenderTarget) {
	h.target = target
	if h.frame != nil && target != nil {
		for i, at := range h.frame {
			target.SetGlyph(i, at)
		}
	}
}

func (h *Host) ready() error {
	if h.fault != nil {
		return fmt.Errorf("%w: %w", ErrHalted, h.fault)
	}
	if h.state != Running {
		return fmt.Errorf("%w: state %s", ErrNotRunning, h.state)
	}
	return nil
}

func (h *Host) halt(what string, err error) error {
	h.fault = fmt.Errorf("%s: %w", what, err)
	log.Errorf("%s halted in %s: %s", h.name, what, err)
	return h.fault
}

// guard runs a call into program code, converting panics to errors.
func (h *Host) guard(what string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", what, r)
		}
	}()
	return fn()
}

// Name returns the host label.
func (h *Host) Name() string { return h.name }

// State returns the lifecycle state.
func (h *Host) State() HostState { return h.state }

// Err returns the error that halted the session, if any.
func (h *Host) Err() error { return h.fault }

// Session returns the host's session.
func (h *Host) Session() *Session { return h.session }

// Library returns the builtin library bound to the session.
func (h *Host) Library() *Library { return h.lib }

// Capabilities reports which optional handlers the program provided.
func (h *Host) Capabilities() Capabilities { return h.caps }

// Frame returns the last computed frame, nil before the first refresh.
func (h *Host) Frame() *Frame { return h.frame }
