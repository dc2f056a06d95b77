package vm

// ---------------------------------------------------------------------------
// Integer Primitives
// ---------------------------------------------------------------------------

// All arithmetic is fixed-width signed 32-bit. Add and Sub wrap, Mul keeps
// the low 32 bits of the exact product, Div truncates toward zero and Mod
// takes the sign of the dividend.

func boolCell(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func Eq(x, y int32) int32  { return boolCell(x == y) }
func Ne(x, y int32) int32  { return boolCell(x != y) }
func Gt(x, y int32) int32  { return boolCell(x > y) }
func Lt(x, y int32) int32  { return boolCell(x < y) }
func Gte(x, y int32) int32 { return boolCell(x >= y) }
func Lte(x, y int32) int32 { return boolCell(x <= y) }

// Add returns the sum of its arguments, 0 for none.
func Add(xs ...int32) int32 {
	var sum int32
	for _, x := range xs {
		sum += x
	}
	return sum
}

// Sub subtracts every following argument from the first. With no
// arguments the result is 0.
func Sub(xs ...int32) int32 {
	if len(xs) == 0 {
		return 0
	}
	dif := xs[0]
	for _, x := range xs[1:] {
		dif -= x
	}
	return dif
}

// Mul returns x*y truncated to 32 bits.
func Mul(x, y int32) int32 {
	return int32(int64(x) * int64(y))
}

// Div returns x/y truncated toward zero. Division by zero yields 0, the
// value an integer coercion of an infinite quotient produces.
func Div(x, y int32) int32 {
	if y == 0 {
		return 0
	}
	return x / y
}

// Mod returns the truncating remainder, whose sign follows x. A zero
// divisor yields 0.
func Mod(x, y int32) int32 {
	if y == 0 {
		return 0
	}
	return x % y
}

// Random returns a uniformly chosen integer in [0, max).
func (l *Library) Random(limit int32) int32 {
	if limit <= 0 {
		return 0
	}
	return l.session.rng.Int32N(limit)
}
