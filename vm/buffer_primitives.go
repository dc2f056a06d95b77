package vm

// ---------------------------------------------------------------------------
// Buffer Primitives
// ---------------------------------------------------------------------------

// Buffer allocates a zero-filled buffer of size cells.
func (l *Library) Buffer(size int32) (int32, error) {
	return l.session.store.Allocate(size)
}

// BufferFrom allocates a buffer holding a copy of values.
func (l *Library) BufferFrom(values []int32) (int32, error) {
	return l.session.store.AllocateFrom(values)
}

// Asset allocates a buffer from a named asset of the session.
func (l *Library) Asset(name string) (int32, error) {
	values, ok := l.session.assets[name]
	if !ok {
		return -1, opError("asset", ErrBufferNotFound, -1, "no asset named %q", name)
	}
	return l.session.store.AllocateFrom(values)
}

// Size returns the length of a buffer.
func (l *Library) Size(id int32) (int32, error) {
	b, err := l.session.store.resolve("size", id)
	if err != nil {
		return 0, err
	}
	return int32(len(b.cells)), nil
}

// Push appends value and returns it.
func (l *Library) Push(id, value int32) (int32, error) {
	b, err := l.session.store.resolve("push", id)
	if err != nil {
		return 0, err
	}
	if len(b.cells) >= MaxCells {
		return 0, opError("push", ErrOverflow, id, "buffer cannot grow beyond %d cells", MaxCells)
	}
	b.cells = append(b.cells, value)
	return value, nil
}

// Pop removes and returns the last cell.
func (l *Library) Pop(id int32) (int32, error) {
	b, err := l.session.store.resolve("pop", id)
	if err != nil {
		return 0, err
	}
	n := len(b.cells)
	if n == 0 {
		return 0, opError("pop", ErrUnderflow, id, "pop on empty buffer")
	}
	v := b.cells[n-1]
	b.cells = b.cells[:n-1]
	return v, nil
}

// Get returns cell idx.
func (l *Library) Get(id, idx int32) (int32, error) {
	b, err := l.session.store.resolve("get", id)
	if err != nil {
		return 0, err
	}
	if idx < 0 || int(idx) >= len(b.cells) {
		return 0, opError("get", ErrIndexOutOfRange, id, "index %d, length %d", idx, len(b.cells))
	}
	return b.cells[idx], nil
}

// Set writes value to cell idx and returns it.
func (l *Library) Set(id, idx, value int32) (int32, error) {
	b, err := l.session.store.resolve("set", id)
	if err != nil {
		return 0, err
	}
	if idx < 0 || int(idx) >= len(b.cells) {
		return 0, opError("set", ErrIndexOutOfRange, id, "index %d, length %d", idx, len(b.cells))
	}
	b.cells[idx] = value
	return value, nil
}

// CopyRequest holds the arguments of copy. A nil Len means "the rest of
// the source after FromLoc".
type CopyRequest struct {
	To, From       int32
	ToLoc, FromLoc int32
	Len            *int32
}

// Copy moves a window of cells from one buffer to another. The whole
// window is validated before the first write, so a failed copy leaves both
// buffers untouched. Cells are copied one at a time in increasing index
// order; when To and From are the same buffer and the windows overlap
// with ToLoc > FromLoc, the leading cells repeat forward.
func (l *Library) Copy(req CopyRequest) error {
	dst, err := l.session.store.resolve("copy", req.To)
	if err != nil {
		return err
	}
	src, err := l.session.store.resolve("copy", req.From)
	if err != nil {
		return err
	}

	n := int32(len(src.cells)) - req.FromLoc
	if req.Len != nil {
		n = *req.Len
	}

	switch {
	case n < 0:
		return opError("copy", ErrRange, req.From, "negative length %d", n)
	case req.FromLoc < 0 || int(req.FromLoc)+int(n) > len(src.cells):
		return opError("copy", ErrRange, req.From, "source window [%d, %d) outside length %d",
			req.FromLoc, int(req.FromLoc)+int(n), len(src.cells))
	case req.ToLoc < 0 || int(req.ToLoc)+int(n) > len(dst.cells):
		return opError("copy", ErrRange, req.To, "destination window [%d, %d) outside length %d",
			req.ToLoc, int(req.ToLoc)+int(n), len(dst.cells))
	}

	for i := int32(0); i < n; i++ {
		dst.cells[req.ToLoc+i] = src.cells[req.FromLoc+i]
	}
	return nil
}

// Screen designates a buffer as the screen and returns 0.
func (l *Library) Screen(id int32) (int32, error) {
	if _, err := l.session.store.resolve("screen", id); err != nil {
		return 0, err
	}
	l.session.screen = id
	return 0, nil
}
