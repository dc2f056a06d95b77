package vm

import (
	"maps"
	"math/rand/v2"
	"slices"
)

// noScreen marks a session whose screen reference was never assigned.
const noScreen int32 = -1

// Session is the per-run context: the buffer table, the screen reference,
// the random source and any named assets. It is owned by a Host and passed
// explicitly to the Library; nothing here is global.
type Session struct {
	store  *BufferStore
	screen int32
	rng    *rand.Rand
	assets map[string][]int32
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSeed makes the random builtin deterministic.
func WithSeed(seed uint64) SessionOption {
	return func(s *Session) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithAssets makes named integer sequences available to the asset builtin.
func WithAssets(assets map[string][]int32) SessionOption {
	return func(s *Session) {
		s.assets = assets
	}
}

// NewSession creates an empty session.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		store:  NewBufferStore(),
		screen: noScreen,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Store returns the session's buffer store.
func (s *Session) Store() *BufferStore {
	return s.store
}

// Screen returns the buffer currently designated as the screen, or nil
// when the program never called screen.
func (s *Session) Screen() *Buffer {
	if s.screen == noScreen {
		return nil
	}
	b, err := s.store.Resolve(s.screen)
	if err != nil {
		return nil
	}
	return b
}

// ScreenID returns the screen reference, -1 when unassigned.
func (s *Session) ScreenID() int32 {
	return s.screen
}

// AssetNames lists the assets known to the session in sorted order.
func (s *Session) AssetNames() []string {
	return slices.Sorted(maps.Keys(s.assets))
}
