package programs

import "github.com/chazu/semigrafx/vm"

// Paint draws the brush glyph where the pointer goes down. Shift-click
// erases and alt-click picks the glyph under the pointer as the brush.
// Letters choose the brush (lower case unless shift is held) and space
// clears the canvas.
func Paint(lib *vm.Library) (*vm.Program, error) {
	var screen, blank int32
	brush := int32(glyphHash)

	return &vm.Program{
		Init: func() error {
			var err error
			if screen, err = fullScreen(lib); err != nil {
				return err
			}
			blank, err = lib.Buffer(vm.GridCells)
			return err
		},
		MouseDown: func(row, col int, shift, alt bool) error {
			slot := int32(vm.SlotIndex(row, col))
			switch {
			case alt:
				code, err := lib.Get(screen, slot)
				if err != nil {
					return err
				}
				if code != glyphBlank {
					brush = code
				}
				return nil
			case shift:
				_, err := lib.Set(screen, slot, glyphBlank)
				return err
			}
			_, err := lib.Set(screen, slot, brush)
			return err
		},
		KeyDown: func(keyCode int, shift, alt bool) error {
			if keyCode == vm.KeySpace {
				return lib.Copy(vm.CopyRequest{To: screen, From: blank})
			}
			brush = int32(keyCode)
			if !shift {
				brush = vm.Add(brush, 'a'-'A')
			}
			return nil
		},
	}, nil
}
