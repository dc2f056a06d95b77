// Package programs holds the native demo programs. They are written
// against the typed builtin library the same way a script would use it.
package programs

import (
	"maps"
	"slices"

	"github.com/chazu/semigrafx/vm"
)

var registry = map[string]vm.Factory{
	"charmap": Charmap,
	"paint":   Paint,
	"life":    Life,
}

// Registry returns the native programs by id.
func Registry() map[string]vm.Factory {
	return maps.Clone(registry)
}

// Names lists the native program ids in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Glyph codes used by the demos.
const (
	glyphBlank = 0
	glyphHash  = 35
	glyphZero  = 48
	glyphBlock = 219
)

// fullScreen allocates a 1024-cell buffer and makes it the screen.
func fullScreen(lib *vm.Library) (int32, error) {
	id, err := lib.Buffer(vm.GridCells)
	if err != nil {
		return 0, err
	}
	if _, err := lib.Screen(id); err != nil {
		return 0, err
	}
	return id, nil
}

// writeNumber prints n in decimal starting at slot, right-aligned in width
// cells.
func writeNumber(lib *vm.Library, buf, slot, width, n int32) error {
	for i := width - 1; i >= 0; i-- {
		code := int32(glyphBlank)
		if n > 0 || i == width-1 {
			code = vm.Add(glyphZero, vm.Mod(n, 10))
		}
		if _, err := lib.Set(buf, slot+i, code); err != nil {
			return err
		}
		n = vm.Div(n, 10)
	}
	return nil
}

// writeText prints ASCII text starting at slot.
func writeText(lib *vm.Library, buf, slot int32, text string) error {
	for i, r := range text {
		if _, err := lib.Set(buf, slot+int32(i), int32(r)); err != nil {
			return err
		}
	}
	return nil
}
