package programs

import "github.com/chazu/semigrafx/vm"

// Life runs Conway's game of life on the grid with wrapping edges. Clicks
// toggle cells, space advances one generation, R seeds a random board and
// C clears it.
func Life(lib *vm.Library) (*vm.Program, error) {
	var screen, next int32

	alive := func(row, col int32) (int32, error) {
		r := vm.Mod(vm.Add(row, vm.GridSize), vm.GridSize)
		c := vm.Mod(vm.Add(col, vm.GridSize), vm.GridSize)
		code, err := lib.Get(screen, vm.Add(vm.Mul(r, vm.GridSize), c))
		if err != nil {
			return 0, err
		}
		return vm.Ne(code, glyphBlank), nil
	}

	step := func() error {
		for row := int32(0); row < vm.GridSize; row++ {
			for col := int32(0); col < vm.GridSize; col++ {
				var n int32
				for dr := int32(-1); dr <= 1; dr++ {
					for dc := int32(-1); dc <= 1; dc++ {
						if dr == 0 && dc == 0 {
							continue
						}
						v, err := alive(row+dr, col+dc)
						if err != nil {
							return err
						}
						n = vm.Add(n, v)
					}
				}
				self, err := alive(row, col)
				if err != nil {
					return err
				}
				code := int32(glyphBlank)
				if vm.Eq(n, 3) == 1 || (self == 1 && vm.Eq(n, 2) == 1) {
					code = glyphBlock
				}
				if _, err := lib.Set(next, row*vm.GridSize+col, code); err != nil {
					return err
				}
			}
		}
		return lib.Copy(vm.CopyRequest{To: screen, From: next})
	}

	fill := func(random bool) error {
		for slot := int32(0); slot < vm.GridCells; slot++ {
			code := int32(glyphBlank)
			if random && lib.Random(4) == 0 {
				code = glyphBlock
			}
			if _, err := lib.Set(screen, slot, code); err != nil {
				return err
			}
		}
		return nil
	}

	return &vm.Program{
		Init: func() error {
			var err error
			if screen, err = fullScreen(lib); err != nil {
				return err
			}
			next, err = lib.Buffer(vm.GridCells)
			return err
		},
		MouseDown: func(row, col int, shift, alt bool) error {
			slot := int32(vm.SlotIndex(row, col))
			code, err := lib.Get(screen, slot)
			if err != nil {
				return err
			}
			if code == glyphBlank {
				code = glyphBlock
			} else {
				code = glyphBlank
			}
			_, err = lib.Set(screen, slot, code)
			return err
		},
		KeyDown: func(keyCode int, shift, alt bool) error {
			switch keyCode {
			case vm.KeySpace:
				return step()
			case 'R':
				return fill(true)
			case 'C':
				return fill(false)
			}
			return nil
		},
	}, nil
}
