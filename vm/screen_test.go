package vm

import (
	"testing"
)

func TestAtlasFor(t *testing.T) {
	tests := []struct {
		code     int32
		col, row int32
	}{
		{0, 0, 0},
		{1, 1, 0},
		{15, 15, 0},
		{16, 0, 1},
		{17, 1, 1},
		{255, 15, 15},
		{256, 0, 16},
		{-1, 15, -1},
		{-16, 0, -1},
		{-17, 15, -2},
	}
	for _, tt := range tests {
		at := AtlasFor(tt.code)
		if at.Col != tt.col || at.Row != tt.row {
			t.Errorf("AtlasFor(%d) = (col=%d, row=%d), want (col=%d, row=%d)",
				tt.code, at.Col, at.Row, tt.col, tt.row)
		}
		if at.Code() != tt.code {
			t.Errorf("AtlasFor(%d).Code() = %d", tt.code, at.Code())
		}
	}
}

func TestSlotIndexRoundTrip(t *testing.T) {
	for slot := 0; slot < GridCells; slot++ {
		row, col := SlotPosition(slot)
		if SlotIndex(row, col) != slot {
			t.Fatalf("SlotIndex(SlotPosition(%d)) = %d", slot, SlotIndex(row, col))
		}
	}
	if SlotIndex(1, 2) != 34 {
		t.Errorf("SlotIndex(1, 2) = %d, want 34", SlotIndex(1, 2))
	}
}

type recordingTarget struct {
	calls int
	last  Frame
}

func (r *recordingTarget) SetGlyph(slot int, at Atlas) {
	r.calls++
	r.last[slot] = at
}

func TestRefreshWithoutScreenIsAllZero(t *testing.T) {
	s := NewSession()
	target := &recordingTarget{}
	frame := NewScreenMapper(s).Refresh(target)

	if target.calls != GridCells {
		t.Errorf("SetGlyph called %d times, want %d", target.calls, GridCells)
	}
	for i, at := range frame {
		if at != (Atlas{}) {
			t.Fatalf("slot %d = %+v, want zero", i, at)
		}
	}
}

func TestRefreshFollowsScreenBuffer(t *testing.T) {
	s := NewSession()
	lib := NewLibrary(s)
	mapper := NewScreenMapper(s)

	b, _ := lib.Buffer(GridCells)
	if _, err := lib.Screen(b); err != nil {
		t.Fatal(err)
	}
	lib.Set(b, 0, 17)
	lib.Set(b, GridCells-1, 65)

	frame := mapper.Refresh(nil)
	if frame[0] != (Atlas{Col: 1, Row: 1}) {
		t.Errorf("slot 0 = %+v, want (col=1, row=1)", frame[0])
	}
	if frame[GridCells-1] != (Atlas{Col: 1, Row: 4}) {
		t.Errorf("slot 1023 = %+v, want (col=1, row=4)", frame[GridCells-1])
	}

	// Redirecting the screen does not copy; the next refresh reads the new buffer.
	other := mustBuffer(t, lib, 33)
	lib.Screen(other)
	frame = mapper.Refresh(nil)
	if frame[0] != (Atlas{Col: 1, Row: 2}) {
		t.Errorf("slot 0 after redirect = %+v, want (col=1, row=2)", frame[0])
	}
	if frame[1] != (Atlas{}) {
		t.Errorf("slot 1 beyond a 1-cell screen = %+v, want zero", frame[1])
	}
}

func TestRefreshSeesLaterMutations(t *testing.T) {
	s := NewSession()
	lib := NewLibrary(s)
	mapper := NewScreenMapper(s)

	b := mustBuffer(t, lib, 1, 2)
	lib.Screen(b)
	lib.Push(b, 3)
	lib.Set(b, 0, 48)

	codes := mapper.Codes()
	if codes[0] != 48 || codes[1] != 2 || codes[2] != 3 || codes[3] != 0 {
		t.Errorf("codes[0:4] = %v, want [48 2 3 0]", codes[:4])
	}
}

func TestFrameIsRenderTarget(t *testing.T) {
	var f Frame
	var target RenderTarget = &f
	target.SetGlyph(5, Atlas{Col: 3, Row: 2})
	if f[5] != (Atlas{Col: 3, Row: 2}) {
		t.Errorf("Frame.SetGlyph did not record slot 5: %+v", f[5])
	}
}
