// Package tui renders a semigrafx host in a terminal and feeds terminal
// input back through the input dispatcher.
package tui

import (
	"strings"

	"github.com/chazu/semigrafx/vm"
)

// TileWidth is the number of terminal columns per tile; two columns make a
// tile roughly square.
const TileWidth = 2

// Screen is a render target holding the glyph of every slot.
type Screen struct {
	glyphs [vm.GridCells]rune
}

// NewScreen creates a blank screen.
func NewScreen() *Screen {
	s := &Screen{}
	for i := range s.glyphs {
		s.glyphs[i] = ' '
	}
	return s
}

// SetGlyph implements vm.RenderTarget.
func (s *Screen) SetGlyph(slot int, at vm.Atlas) {
	s.glyphs[slot] = Glyph(at)
}

// Lines returns the grid as one string per row.
func (s *Screen) Lines() []string {
	lines := make([]string, vm.GridSize)
	var b strings.Builder
	for row := 0; row < vm.GridSize; row++ {
		b.Reset()
		for col := 0; col < vm.GridSize; col++ {
			b.WriteRune(s.glyphs[vm.SlotIndex(row, col)])
			b.WriteString(strings.Repeat(" ", TileWidth-1))
		}
		lines[row] = b.String()
	}
	return lines
}

// Render draws a frame without a terminal program, for piping a single
// frame to a file or another tool.
func Render(frame *vm.Frame) string {
	s := NewScreen()
	for i, at := range frame {
		s.SetGlyph(i, at)
	}
	return frameStyle.Render(strings.Join(s.Lines(), "\n"))
}
