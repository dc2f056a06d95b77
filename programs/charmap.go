package programs

import "github.com/chazu/semigrafx/vm"

const (
	charmapPages  = 4
	charmapLabel  = 17 * vm.GridSize
	charmapPicked = charmapLabel + 8
)

// Charmap shows a page of 256 glyphs as a 16x16 block. Space moves to the
// next page, P to the previous one; clicking a glyph prints its code.
func Charmap(lib *vm.Library) (*vm.Program, error) {
	var screen, page int32

	draw := func() error {
		for row := int32(0); row < vm.AtlasColumns; row++ {
			for col := int32(0); col < vm.AtlasColumns; col++ {
				code := vm.Add(vm.Mul(page, 256), vm.Mul(row, vm.AtlasColumns), col)
				if _, err := lib.Set(screen, row*vm.GridSize+col, code); err != nil {
					return err
				}
			}
		}
		if err := writeText(lib, screen, charmapLabel, "page"); err != nil {
			return err
		}
		return writeNumber(lib, screen, charmapLabel+5, 1, page)
	}

	return &vm.Program{
		Init: func() error {
			var err error
			if screen, err = fullScreen(lib); err != nil {
				return err
			}
			return draw()
		},
		MouseDown: func(row, col int, shift, alt bool) error {
			if row >= vm.AtlasColumns || col >= vm.AtlasColumns {
				return nil
			}
			code, err := lib.Get(screen, int32(vm.SlotIndex(row, col)))
			if err != nil {
				return err
			}
			return writeNumber(lib, screen, charmapPicked, 4, code)
		},
		KeyDown: func(keyCode int, shift, alt bool) error {
			switch keyCode {
			case vm.KeySpace:
				page = vm.Mod(vm.Add(page, 1), charmapPages)
			case 'P':
				page = vm.Mod(vm.Add(page, charmapPages-1), charmapPages)
			default:
				return nil
			}
			return draw()
		},
	}, nil
}
