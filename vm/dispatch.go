package vm

// ---------------------------------------------------------------------------
// Input Dispatcher
// ---------------------------------------------------------------------------

// Key codes accepted by the dispatcher.
const (
	KeySpace = 32
	KeyA     = 65
	KeyZ     = 90
)

// PointerEvent is a pointer-down on a tile slot. Row and Col are the slot's
// grid position, never pixel coordinates.
type PointerEvent struct {
	Row, Col   int
	Shift, Alt bool
}

// KeyEvent is a key-down with its modifiers.
type KeyEvent struct {
	KeyCode    int
	Shift, Alt bool
	Meta, Ctrl bool
}

// AcceptsKey reports whether a key-down is meant for the program: Space or
// A-Z with neither meta nor ctrl held. Everything else belongs to the
// surrounding environment.
func AcceptsKey(ev KeyEvent) bool {
	if ev.Meta || ev.Ctrl {
		return false
	}
	return ev.KeyCode == KeySpace || (ev.KeyCode >= KeyA && ev.KeyCode <= KeyZ)
}

// Dispatcher filters raw input and forwards it to a Host. The consumed
// result tells the input source whether to swallow the event.
type Dispatcher struct {
	host *Host
}

// NewDispatcher creates a dispatcher for host.
func NewDispatcher(host *Host) *Dispatcher {
	return &Dispatcher{host: host}
}

// Host returns the host events are forwarded to.
func (d *Dispatcher) Host() *Host {
	return d.host
}

// PointerDown forwards a pointer-down on a slot. Positions outside the grid
// are not slots and pass through.
func (d *Dispatcher) PointerDown(ev PointerEvent) (consumed bool, err error) {
	if ev.Row < 0 || ev.Row >= GridSize || ev.Col < 0 || ev.Col >= GridSize {
		return false, nil
	}
	return true, d.host.MouseDown(ev.Row, ev.Col, ev.Shift, ev.Alt)
}

// KeyDown forwards an accepted key-down; any other key passes through.
func (d *Dispatcher) KeyDown(ev KeyEvent) (consumed bool, err error) {
	if !AcceptsKey(ev) {
		return false, nil
	}
	return true, d.host.KeyDown(ev.KeyCode, ev.Shift, ev.Alt)
}
