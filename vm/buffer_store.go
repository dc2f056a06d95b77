package vm

// ---------------------------------------------------------------------------
// Buffer Store
// ---------------------------------------------------------------------------

const (
	// MaxBuffers is the number of buffers a session may allocate.
	MaxBuffers = 32
	// MaxCells is the largest length a buffer may reach.
	MaxCells = 1024
)

// Buffer is a growable, bounds-checked sequence of int32 cells.
type Buffer struct {
	id    int32
	cells []int32
}

// ID returns the permanent allocation index of the buffer.
func (b *Buffer) ID() int32 { return b.id }

// Len returns the current number of cells.
func (b *Buffer) Len() int { return len(b.cells) }

// At returns cell i, or 0 when i is outside the buffer. Only the screen
// mapper reads this way; builtins go through the checked operations.
func (b *Buffer) At(i int) int32 {
	if i < 0 || i >= len(b.cells) {
		return 0
	}
	return b.cells[i]
}

// Cells returns a copy of the buffer contents.
func (b *Buffer) Cells() []int32 {
	out := make([]int32, len(b.cells))
	copy(out, b.cells)
	return out
}

// BufferStore owns every buffer allocated in a session. It is append-only:
// ids are never reused and buffers are never freed.
type BufferStore struct {
	buffers []*Buffer
}

// NewBufferStore creates an empty store.
func NewBufferStore() *BufferStore {
	return &BufferStore{buffers: make([]*Buffer, 0, MaxBuffers)}
}

// Len returns the number of allocated buffers.
func (s *BufferStore) Len() int {
	return len(s.buffers)
}

// Allocate appends a zero-filled buffer of the given size.
func (s *BufferStore) Allocate(size int32) (int32, error) {
	if size < 1 || size > MaxCells {
		return -1, opError("buffer", ErrInvalidSize, -1, "size %d not in [1, %d]", size, MaxCells)
	}
	return s.add("buffer", make([]int32, size))
}

// AllocateFrom appends a buffer holding a copy of values. There is no
// minimum length, only the per-buffer cap.
func (s *BufferStore) AllocateFrom(values []int32) (int32, error) {
	if len(values) > MaxCells {
		return -1, opError("buffer", ErrInvalidSize, -1, "%d values exceed %d cells", len(values), MaxCells)
	}
	cells := make([]int32, len(values), max(len(values), 1))
	copy(cells, values)
	return s.add("buffer", cells)
}

func (s *BufferStore) add(op string, cells []int32) (int32, error) {
	if len(s.buffers) >= MaxBuffers {
		return -1, opError(op, ErrCapacityExceeded, -1, "cannot have more than %d buffers", MaxBuffers)
	}
	b := &Buffer{id: int32(len(s.buffers)), cells: cells}
	s.buffers = append(s.buffers, b)
	return b.id, nil
}

// Resolve returns the live buffer with the given id.
func (s *BufferStore) Resolve(id int32) (*Buffer, error) {
	return s.resolve("resolve", id)
}

func (s *BufferStore) resolve(op string, id int32) (*Buffer, error) {
	if id < 0 || int(id) >= len(s.buffers) {
		return nil, opError(op, ErrBufferNotFound, id, "")
	}
	return s.buffers[id], nil
}

// All returns the buffers in allocation order.
func (s *BufferStore) All() []*Buffer {
	out := make([]*Buffer, len(s.buffers))
	copy(out, s.buffers)
	return out
}
