package vm

import (
	"sort"
)

// ---------------------------------------------------------------------------
// Builtin Operation Library
// ---------------------------------------------------------------------------

// Library is the set of builtin operations a program factory receives. It
// operates on exactly one Session, which the host passes in explicitly.
type Library struct {
	session *Session
	table   map[string]Builtin
}

// Builtin is the untyped calling convention used by the flat operation
// table: every argument and result is a cell. Missing trailing arguments
// read as 0 unless the operation documents another default.
type Builtin func(args ...int32) (int32, error)

// BuiltinDoc describes one library operation for tooling.
type BuiltinDoc struct {
	Name      string
	Signature string
	Summary   string
	Failures  []error
}

// scriptOnly names operations whose arguments are not all cells. They are
// bound by the script loader and never appear in the flat table.
var scriptOnly = map[string]bool{"asset": true}

// ScriptOnly reports whether the operation is reachable from program
// factories only, and not through Library.Table or Library.Call.
func (d BuiltinDoc) ScriptOnly() bool {
	return scriptOnly[d.Name]
}

var builtinDocs = []BuiltinDoc{
	{"buffer", "buffer(size) | buffer([values])", "allocates a zero-filled buffer of size cells, or one holding values; returns its id", []error{ErrInvalidSize, ErrCapacityExceeded}},
	{"asset", "asset(name)", "allocates a buffer holding the named asset; returns its id", []error{ErrBufferNotFound, ErrInvalidSize, ErrCapacityExceeded}},
	{"size", "size(buf)", "returns the length of buf", []error{ErrBufferNotFound}},
	{"push", "push(buf, value)", "appends value to buf; returns value", []error{ErrBufferNotFound, ErrOverflow}},
	{"pop", "pop(buf)", "removes and returns the last cell of buf", []error{ErrBufferNotFound, ErrUnderflow}},
	{"get", "get(buf, idx)", "returns cell idx of buf", []error{ErrBufferNotFound, ErrIndexOutOfRange}},
	{"set", "set(buf, idx, value)", "writes value to cell idx of buf; returns value", []error{ErrBufferNotFound, ErrIndexOutOfRange}},
	{"copy", "copy(to, from, toLoc=0, fromLoc=0, len=size(from)-fromLoc)", "copies len cells from from[fromLoc:] to to[toLoc:] in increasing index order", []error{ErrBufferNotFound, ErrRange}},
	{"screen", "screen(buf)", "makes buf the screen buffer; returns 0", []error{ErrBufferNotFound}},
	{"eq", "eq(x, y)", "1 if x == y else 0", nil},
	{"ne", "ne(x, y)", "1 if x != y else 0", nil},
	{"gt", "gt(x, y)", "1 if x > y else 0", nil},
	{"lt", "lt(x, y)", "1 if x < y else 0", nil},
	{"gte", "gte(x, y)", "1 if x >= y else 0", nil},
	{"lte", "lte(x, y)", "1 if x <= y else 0", nil},
	{"add", "add(x...)", "sum of the arguments, 0 for none; wraps at 32 bits", nil},
	{"sub", "sub(x, y...)", "x minus each following argument, x defaults to 0", nil},
	{"mul", "mul(x, y)", "product truncated to a signed 32-bit integer", nil},
	{"div", "div(x, y)", "quotient truncated toward zero; 0 when y is 0", nil},
	{"mod", "mod(x, y)", "remainder with the sign of x; 0 when y is 0", nil},
	{"random", "random(max)", "uniform integer in [0, max); 0 when max <= 0", nil},
}

// Docs returns the documentation for every builtin, sorted by name.
func Docs() []BuiltinDoc {
	out := make([]BuiltinDoc, len(builtinDocs))
	copy(out, builtinDocs)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupDoc returns the documentation for a builtin name.
func LookupDoc(name string) (BuiltinDoc, bool) {
	for _, d := range builtinDocs {
		if d.Name == name {
			return d, true
		}
	}
	return BuiltinDoc{}, false
}

// NewLibrary binds the builtin operations to a session.
func NewLibrary(session *Session) *Library {
	lib := &Library{session: session}
	lib.table = lib.buildTable()
	return lib
}

// Session returns the session the library operates on.
func (l *Library) Session() *Session {
	return l.session
}

// Table returns the flat name to operation mapping. The map is shared;
// callers must not modify it. Operations documented as ScriptOnly, such as
// asset, take a name rather than cells and are absent; use Library.Asset.
func (l *Library) Table() map[string]Builtin {
	return l.table
}

// Call invokes a builtin by name. ScriptOnly operations fail with
// ErrUnknownBuiltin.
func (l *Library) Call(name string, args ...int32) (int32, error) {
	fn, ok := l.table[name]
	if !ok {
		return 0, &Error{Op: name, Kind: ErrUnknownBuiltin, Buffer: -1}
	}
	return fn(args...)
}

func arg(args []int32, i int) int32 {
	if i < len(args) {
		return args[i]
	}
	return 0
}

func (l *Library) buildTable() map[string]Builtin {
	return map[string]Builtin{
		"buffer": func(a ...int32) (int32, error) { return l.Buffer(arg(a, 0)) },
		"size":   func(a ...int32) (int32, error) { return l.Size(arg(a, 0)) },
		"push":   func(a ...int32) (int32, error) { return l.Push(arg(a, 0), arg(a, 1)) },
		"pop":    func(a ...int32) (int32, error) { return l.Pop(arg(a, 0)) },
		"get":    func(a ...int32) (int32, error) { return l.Get(arg(a, 0), arg(a, 1)) },
		"set":    func(a ...int32) (int32, error) { return l.Set(arg(a, 0), arg(a, 1), arg(a, 2)) },
		"copy":   l.copyArgs,
		"screen": func(a ...int32) (int32, error) { return l.Screen(arg(a, 0)) },

		"eq":  func(a ...int32) (int32, error) { return Eq(arg(a, 0), arg(a, 1)), nil },
		"ne":  func(a ...int32) (int32, error) { return Ne(arg(a, 0), arg(a, 1)), nil },
		"gt":  func(a ...int32) (int32, error) { return Gt(arg(a, 0), arg(a, 1)), nil },
		"lt":  func(a ...int32) (int32, error) { return Lt(arg(a, 0), arg(a, 1)), nil },
		"gte": func(a ...int32) (int32, error) { return Gte(arg(a, 0), arg(a, 1)), nil },
		"lte": func(a ...int32) (int32, error) { return Lte(arg(a, 0), arg(a, 1)), nil },

		"add":    func(a ...int32) (int32, error) { return Add(a...), nil },
		"sub":    func(a ...int32) (int32, error) { return Sub(a...), nil },
		"mul":    func(a ...int32) (int32, error) { return Mul(arg(a, 0), arg(a, 1)), nil },
		"div":    func(a ...int32) (int32, error) { return Div(arg(a, 0), arg(a, 1)), nil },
		"mod":    func(a ...int32) (int32, error) { return Mod(arg(a, 0), arg(a, 1)), nil },
		"random": func(a ...int32) (int32, error) { return l.Random(arg(a, 0)), nil },
	}
}

// copyArgs applies the positional defaults of copy: toLoc and fromLoc
// default to 0, len to whatever remains of the source after fromLoc.
func (l *Library) copyArgs(a ...int32) (int32, error) {
	req := CopyRequest{To: arg(a, 0), From: arg(a, 1), ToLoc: arg(a, 2), FromLoc: arg(a, 3)}
	if len(a) > 4 {
		n := a[4]
		req.Len = &n
	}
	return 0, l.Copy(req)
}
