package vm

// Program is the capability set a factory returns. Init is required;
// MouseDown and KeyDown are optional and left nil when the program does
// not handle that input.
type Program struct {
	Init      func() error
	MouseDown func(row, col int, shift, alt bool) error
	KeyDown   func(keyCode int, shift, alt bool) error
}

// Factory builds a Program from the builtin library. The host calls it
// exactly once per session; the program typically closes over lib.
type Factory func(lib *Library) (*Program, error)

// Capabilities records which optional handlers a program provided. It is
// filled in once, when the factory returns.
type Capabilities struct {
	MouseDown bool
	KeyDown   bool
}

func (p *Program) capabilities() Capabilities {
	return Capabilities{
		MouseDown: p.MouseDown != nil,
		KeyDown:   p.KeyDown != nil,
	}
}
