package vm

// ---------------------------------------------------------------------------
// Screen Mapper
// ---------------------------------------------------------------------------

const (
	// GridSize is the width and height of the tile grid.
	GridSize = 32
	// GridCells is the number of tile slots.
	GridCells = GridSize * GridSize
	// AtlasColumns is the width of the glyph atlas in glyphs.
	AtlasColumns = 16
)

// Atlas is a glyph coordinate in the 16-column glyph sheet.
type Atlas struct {
	Col int32
	Row int32
}

// AtlasFor maps a tile code to its glyph coordinate: Row is the floor of
// code/16 and Col the matching non-negative remainder, so Row*16+Col
// always reproduces the code.
func AtlasFor(code int32) Atlas {
	row := code / AtlasColumns
	if code%AtlasColumns < 0 {
		row--
	}
	return Atlas{Col: code - row*AtlasColumns, Row: row}
}

// Code returns the tile code the coordinate was derived from.
func (a Atlas) Code() int32 {
	return a.Row*AtlasColumns + a.Col
}

// SlotIndex flattens a grid position.
func SlotIndex(row, col int) int {
	return row*GridSize + col
}

// SlotPosition returns the grid position of a flattened slot index.
func SlotPosition(slot int) (row, col int) {
	return slot / GridSize, slot % GridSize
}

// RenderTarget receives glyph updates for each tile slot.
type RenderTarget interface {
	SetGlyph(slot int, at Atlas)
}

// Frame is a complete projection of the tile grid. It doubles as a
// RenderTarget that simply records what it is told.
type Frame [GridCells]Atlas

// SetGlyph records the glyph for a slot.
func (f *Frame) SetGlyph(slot int, at Atlas) {
	f[slot] = at
}

// ScreenMapper projects a session's screen buffer onto the tile grid.
// It keeps no state of its own beyond the session it reads.
type ScreenMapper struct {
	session *Session
}

// NewScreenMapper creates a mapper for a session.
func NewScreenMapper(session *Session) *ScreenMapper {
	return &ScreenMapper{session: session}
}

// Codes returns the tile code of every slot. Slots beyond the screen
// buffer, or every slot when no screen is assigned, read as 0.
func (m *ScreenMapper) Codes() [GridCells]int32 {
	var codes [GridCells]int32
	screen := m.session.Screen()
	if screen == nil {
		return codes
	}
	for i := range codes {
		codes[i] = screen.At(i)
	}
	return codes
}

// Refresh recomputes all 1024 slots and pushes them to target, which may
// be nil. The computed frame is returned either way.
func (m *ScreenMapper) Refresh(target RenderTarget) *Frame {
	var frame Frame
	for i, code := range m.Codes() {
		at := AtlasFor(code)
		frame[i] = at
		if target != nil {
			target.SetGlyph(i, at)
		}
	}
	return &frame
}
