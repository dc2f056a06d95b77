package catalog

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/chazu/semigrafx/vm"
	"github.com/chazu/semigrafx/vm/script"
)

// ErrNoCompiler is returned when source must be compiled but no compiler
// is configured.
var ErrNoCompiler = errors.New("no compiler configured")

// Compiler turns program source into factory text.
type Compiler interface {
	Compile(ctx context.Context, source string) (string, error)
}

// Loader resolves program ids to factories. Native programs take
// precedence over stored ones; a stored program without factory text is
// compiled and the result written back.
type Loader struct {
	native        map[string]vm.Factory
	store         *Store
	compiler      Compiler
	scriptTimeout time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithStore makes stored programs loadable.
func WithStore(s *Store) LoaderOption {
	return func(l *Loader) { l.store = s }
}

// WithCompiler sets the compiler used for programs stored as source.
func WithCompiler(c Compiler) LoaderOption {
	return func(l *Loader) { l.compiler = c }
}

// WithScriptTimeout bounds every call into a loaded script.
func WithScriptTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.scriptTimeout = d }
}

// NewLoader creates a loader over a set of native factories.
func NewLoader(native map[string]vm.Factory, opts ...LoaderOption) *Loader {
	l := &Loader{native: native}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Store returns the loader's store, nil if none is configured.
func (l *Loader) Store() *Store {
	return l.store
}

// IDs lists every id the loader can resolve.
func (l *Loader) IDs() ([]string, error) {
	ids := slices.Collect(maps.Keys(l.native))
	if l.store != nil {
		stored, err := l.store.List()
		if err != nil {
			return nil, err
		}
		ids = append(ids, stored...)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// Load resolves id to a factory.
func (l *Loader) Load(ctx context.Context, id string) (vm.Factory, error) {
	if f, ok := l.native[id]; ok {
		return f, nil
	}
	if l.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, id)
	}

	rec, err := l.store.Load(id)
	if err != nil {
		return nil, err
	}
	if rec.Factory == "" {
		factory, err := l.Compile(ctx, rec.Source)
		if err != nil {
			return nil, fmt.Errorf("compiling %s: %w", id, err)
		}
		if err := l.store.SetFactory(id, factory); err != nil {
			log.Warningf("could not cache factory for %s: %s", id, err)
		}
		rec.Factory = factory
	}
	return l.LoadFactory(id, rec.Factory)
}

// Compile sends source to the configured compiler.
func (l *Loader) Compile(ctx context.Context, source string) (string, error) {
	if l.compiler == nil {
		return "", ErrNoCompiler
	}
	log.Infof("compiling %d bytes of source", len(source))
	return l.compiler.Compile(ctx, source)
}

// LoadFactory turns factory text into a factory.
func (l *Loader) LoadFactory(name, factory string) (vm.Factory, error) {
	var opts []script.Option
	if l.scriptTimeout > 0 {
		opts = append(opts, script.WithTimeout(l.scriptTimeout))
	}
	return script.Load(name, factory, opts...)
}
