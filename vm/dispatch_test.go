package vm

import (
	"testing"
)

func TestAcceptsKey(t *testing.T) {
	tests := []struct {
		name string
		ev   KeyEvent
		want bool
	}{
		{"space", KeyEvent{KeyCode: 32}, true},
		{"A", KeyEvent{KeyCode: 65}, true},
		{"Z", KeyEvent{KeyCode: 90}, true},
		{"shift+A", KeyEvent{KeyCode: 65, Shift: true}, true},
		{"alt+Q", KeyEvent{KeyCode: 81, Alt: true}, true},
		{"enter", KeyEvent{KeyCode: 13}, false},
		{"digit", KeyEvent{KeyCode: 48}, false},
		{"below A", KeyEvent{KeyCode: 64}, false},
		{"above Z", KeyEvent{KeyCode: 91}, false},
		{"ctrl+A", KeyEvent{KeyCode: 65, Ctrl: true}, false},
		{"meta+space", KeyEvent{KeyCode: 32, Meta: true}, false},
	}
	for _, tt := range tests {
		if got := AcceptsKey(tt.ev); got != tt.want {
			t.Errorf("AcceptsKey(%s) = %t, want %t", tt.name, got, tt.want)
		}
	}
}

type eventLog struct {
	mouse [][4]int
	keys  [][3]int
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func newLoggingDispatcher(t *testing.T) (*Dispatcher, *eventLog) {
	t.Helper()
	events := &eventLog{}
	h := NewHost(func(lib *Library) (*Program, error) {
		return &Program{
			Init: func() error { return nil },
			MouseDown: func(row, col int, shift, alt bool) error {
				events.mouse = append(events.mouse, [4]int{row, col, b2i(shift), b2i(alt)})
				return nil
			},
			KeyDown: func(keyCode int, shift, alt bool) error {
				events.keys = append(events.keys, [3]int{keyCode, b2i(shift), b2i(alt)})
				return nil
			},
		}, nil
	})
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	return NewDispatcher(h), events
}

func TestDispatchEnterPassesThrough(t *testing.T) {
	d, events := newLoggingDispatcher(t)

	consumed, err := d.KeyDown(KeyEvent{KeyCode: 13})
	if err != nil {
		t.Fatalf("KeyDown returned error: %v", err)
	}
	if consumed {
		t.Error("Enter should pass through unconsumed")
	}
	if len(events.keys) != 0 {
		t.Errorf("program saw %v, want no keydown", events.keys)
	}
}

func TestDispatchForwardsAcceptedKeys(t *testing.T) {
	d, events := newLoggingDispatcher(t)

	consumed, err := d.KeyDown(KeyEvent{KeyCode: 72, Shift: true, Alt: true})
	if err != nil || !consumed {
		t.Fatalf("KeyDown = (%t, %v), want (true, nil)", consumed, err)
	}
	consumed, _ = d.KeyDown(KeyEvent{KeyCode: 72, Ctrl: true})
	if consumed {
		t.Error("ctrl+H should pass through")
	}

	if len(events.keys) != 1 || events.keys[0] != [3]int{72, 1, 1} {
		t.Errorf("program saw %v, want [[72 1 1]]", events.keys)
	}
}

func TestDispatchPointerUsesSlotPosition(t *testing.T) {
	d, events := newLoggingDispatcher(t)

	consumed, err := d.PointerDown(PointerEvent{Row: 31, Col: 0, Shift: true})
	if err != nil || !consumed {
		t.Fatalf("PointerDown = (%t, %v), want (true, nil)", consumed, err)
	}
	consumed, _ = d.PointerDown(PointerEvent{Row: 32, Col: 0})
	if consumed {
		t.Error("pointer outside the grid should pass through")
	}
	consumed, _ = d.PointerDown(PointerEvent{Row: 0, Col: -1})
	if consumed {
		t.Error("pointer outside the grid should pass through")
	}

	if len(events.mouse) != 1 || events.mouse[0] != [4]int{31, 0, 1, 0} {
		t.Errorf("program saw %v, want [[31 0 1 0]]", events.mouse)
	}
}
