package programs

import (
	"slices"
	"testing"

	"github.com/chazu/semigrafx/vm"
)

func start(t *testing.T, f vm.Factory) *vm.Host {
	t.Helper()
	h := vm.NewHost(f, vm.WithSessionOptions(vm.WithSeed(3)))
	if err := h.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	return h
}

func code(h *vm.Host, row, col int) int32 {
	return h.Frame()[vm.SlotIndex(row, col)].Code()
}

func TestRegistry(t *testing.T) {
	if !slices.Equal(Names(), []string{"charmap", "life", "paint"}) {
		t.Errorf("Names = %v", Names())
	}
	r := Registry()
	delete(r, "paint")
	if _, ok := Registry()["paint"]; !ok {
		t.Error("Registry should return a copy")
	}
	for _, name := range Names() {
		h := start(t, Registry()[name])
		caps := h.Capabilities()
		if !caps.MouseDown || !caps.KeyDown {
			t.Errorf("%s: Capabilities = %+v, want both handlers", name, caps)
		}
	}
}

// ---- charmap ----

func TestCharmapPages(t *testing.T) {
	h := start(t, Charmap)
	if code(h, 1, 1) != 17 || code(h, 15, 15) != 255 {
		t.Errorf("page 0 = %d, %d, want 17, 255", code(h, 1, 1), code(h, 15, 15))
	}
	if code(h, 17, 5) != '0' {
		t.Errorf("page label = %d, want '0'", code(h, 17, 5))
	}

	h.KeyDown(vm.KeySpace, false, false)
	if code(h, 0, 0) != 256 {
		t.Errorf("page 1 first glyph = %d, want 256", code(h, 0, 0))
	}
	h.KeyDown('P', false, false)
	h.KeyDown('P', false, false)
	if code(h, 0, 0) != 768 {
		t.Errorf("page wrapped back = %d, want 768", code(h, 0, 0))
	}
}

func TestCharmapPick(t *testing.T) {
	h := start(t, Charmap)
	if err := h.MouseDown(4, 1, false, false); err != nil {
		t.Fatalf("MouseDown returned error: %v", err)
	}
	// glyph 65 printed right-aligned in four cells
	want := []int32{0, 0, '6', '5'}
	for i, w := range want {
		if got := code(h, 17, 8+i); got != w {
			t.Errorf("picked digit %d = %d, want %d", i, got, w)
		}
	}
	if err := h.MouseDown(20, 20, false, false); err != nil {
		t.Errorf("MouseDown outside the chart returned error: %v", err)
	}
}

// ---- paint ----

func TestPaint(t *testing.T) {
	h := start(t, Paint)

	h.MouseDown(3, 4, false, false)
	if code(h, 3, 4) != '#' {
		t.Errorf("painted slot = %d, want '#'", code(h, 3, 4))
	}

	h.KeyDown('Q', false, false)
	h.MouseDown(0, 0, false, false)
	if code(h, 0, 0) != 'q' {
		t.Errorf("brush q = %d, want 'q'", code(h, 0, 0))
	}
	h.KeyDown('Q', true, false)
	h.MouseDown(0, 1, false, false)
	if code(h, 0, 1) != 'Q' {
		t.Errorf("brush Q = %d, want 'Q'", code(h, 0, 1))
	}

	// alt picks up '#', shift erases
	h.MouseDown(3, 4, false, true)
	h.MouseDown(5, 5, false, false)
	if code(h, 5, 5) != '#' {
		t.Errorf("eyedropper brush = %d, want '#'", code(h, 5, 5))
	}
	h.MouseDown(5, 5, true, false)
	if code(h, 5, 5) != 0 {
		t.Errorf("erased slot = %d, want 0", code(h, 5, 5))
	}

	h.KeyDown(vm.KeySpace, false, false)
	for i, at := range h.Frame() {
		if at != (vm.Atlas{}) {
			t.Fatalf("slot %d = %+v after clear, want zero", i, at)
		}
	}
}

// ---- life ----

func TestLifeBlinker(t *testing.T) {
	h := start(t, Life)
	for _, col := range []int{4, 5, 6} {
		h.MouseDown(5, col, false, false)
	}
	if err := h.KeyDown(vm.KeySpace, false, false); err != nil {
		t.Fatalf("step returned error: %v", err)
	}
	for _, row := range []int{4, 5, 6} {
		if code(h, row, 5) != glyphBlock {
			t.Errorf("(%d,5) = %d, want live", row, code(h, row, 5))
		}
	}
	if code(h, 5, 4) != 0 || code(h, 5, 6) != 0 {
		t.Error("blinker ends should die")
	}

	h.KeyDown(vm.KeySpace, false, false)
	if code(h, 5, 4) != glyphBlock || code(h, 4, 5) != 0 {
		t.Error("blinker should return to horizontal after two steps")
	}
}

func TestLifeWrapsEdges(t *testing.T) {
	h := start(t, Life)
	for _, row := range []int{31, 0, 1} {
		h.MouseDown(row, 0, false, false)
	}
	h.KeyDown(vm.KeySpace, false, false)
	if code(h, 0, 31) != glyphBlock || code(h, 0, 1) != glyphBlock || code(h, 0, 0) != glyphBlock {
		t.Error("vertical blinker across the top edge should turn horizontal around (0,0)")
	}
}

func TestLifeRandomAndClear(t *testing.T) {
	h := start(t, Life)
	h.KeyDown('R', false, false)
	live := 0
	for _, at := range h.Frame() {
		if at.Code() == glyphBlock {
			live++
		}
	}
	if live == 0 || live == vm.GridCells {
		t.Errorf("random board has %d live cells", live)
	}

	h.KeyDown('C', false, false)
	for _, at := range h.Frame() {
		if at.Code() != 0 {
			t.Fatal("board should be empty after C")
		}
	}
}
