// Package script loads factory source text into a vm.Factory backed by a
// JavaScript runtime.
//
// The source must evaluate to a function. The host calls it once with an
// object holding the builtins and expects back an object with an init
// function and, optionally, mousedown and keydown functions. Each factory
// invocation gets a fresh runtime, so sessions never share script state.
package script

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/tliron/commonlog"

	"github.com/chazu/semigrafx/vm"
)

var log = commonlog.GetLogger("semigrafx.script")

var (
	// ErrNotFactory is returned when the source does not evaluate to a
	// function.
	ErrNotFactory = errors.New("source does not evaluate to a factory function")

	// ErrSyntax is returned when the source does not parse.
	ErrSyntax = errors.New("syntax error")

	// ErrTimeout is returned when a call into the script runs longer than
	// the configured limit.
	ErrTimeout = errors.New("script timed out")
)

// Option configures a loaded factory.
type Option func(*loader)

// WithTimeout bounds every call into the script. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(l *loader) { l.timeout = d }
}

type loader struct {
	name    string
	program *goja.Program
	timeout time.Duration
}

// Compile parses source and reports syntax errors without running it.
func Compile(name, source string) error {
	if _, err := goja.Compile(name, source, false); err != nil {
		return fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return nil
}

// Load compiles source and returns a factory that evaluates it.
func Load(name, source string, opts ...Option) (vm.Factory, error) {
	program, err := goja.Compile(name, source, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, ErrSyntax, err)
	}
	l := &loader{name: name, program: program}
	for _, opt := range opts {
		opt(l)
	}
	return l.factory, nil
}

func (l *loader) factory(lib *vm.Library) (*vm.Program, error) {
	rt := goja.New()
	rt.Set("console", map[string]any{
		"log": func(call goja.FunctionCall) goja.Value {
			args := make([]any, len(call.Arguments))
			for i, a := range call.Arguments {
				args[i] = a.String()
			}
			log.Infof("%s: %s", l.name, fmt.Sprint(args...))
			return goja.Undefined()
		},
	})

	var value goja.Value
	err := l.run(rt, func() error {
		var err error
		value, err = rt.RunProgram(l.program)
		return err
	})
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(value)
	if !ok {
		return nil, ErrNotFactory
	}

	var result goja.Value
	err = l.run(rt, func() error {
		var err error
		result, err = fn(goja.Undefined(), newBuiltins(rt, lib))
		return err
	})
	if err != nil {
		return nil, err
	}
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return nil, fmt.Errorf("%s: factory returned %v", l.name, result)
	}
	obj := result.ToObject(rt)

	p := &vm.Program{}
	if init, ok := method(obj, "init"); ok {
		p.Init = func() error {
			return l.run(rt, func() error {
				_, err := init(obj)
				return err
			})
		}
	}
	if mousedown, ok := method(obj, "mousedown"); ok {
		p.MouseDown = func(row, col int, shift, alt bool) error {
			return l.run(rt, func() error {
				_, err := mousedown(obj, rt.ToValue(row), rt.ToValue(col), rt.ToValue(shift), rt.ToValue(alt))
				return err
			})
		}
	}
	if keydown, ok := method(obj, "keydown"); ok {
		p.KeyDown = func(keyCode int, shift, alt bool) error {
			return l.run(rt, func() error {
				_, err := keydown(obj, rt.ToValue(keyCode), rt.ToValue(shift), rt.ToValue(alt))
				return err
			})
		}
	}
	return p, nil
}

func method(obj *goja.Object, name string) (goja.Callable, bool) {
	v := obj.Get(name)
	if v == nil {
		return nil, false
	}
	return goja.AssertFunction(v)
}

// run calls fn under the timeout and converts script exceptions back into
// the Go errors that raised them.
func (l *loader) run(rt *goja.Runtime, fn func() error) error {
	if l.timeout > 0 {
		w := &watchdog{rt: rt}
		timer := time.AfterFunc(l.timeout, w.fire)
		defer func() {
			timer.Stop()
			w.stop()
		}()
	}
	return unwrap(fn())
}

// watchdog interrupts one call. A timer that fires after stop must not
// reach the runtime, or it would halt the next call.
type watchdog struct {
	mu      sync.Mutex
	stopped bool
	rt      *goja.Runtime
}

func (w *watchdog) fire() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stopped {
		w.rt.Interrupt(ErrTimeout)
	}
}

func (w *watchdog) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.rt.ClearInterrupt()
}

func unwrap(err error) error {
	if err == nil {
		return nil
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if inner := interrupted.Unwrap(); inner != nil {
			return inner
		}
		return err
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		if inner := exc.Unwrap(); inner != nil {
			return inner
		}
	}
	return err
}

// ---------------------------------------------------------------------------
// Builtins object
// ---------------------------------------------------------------------------

func newBuiltins(rt *goja.Runtime, lib *vm.Library) *goja.Object {
	obj := rt.NewObject()
	for name, fn := range lib.Table() {
		obj.Set(name, wrap(rt, fn))
	}

	// buffer also accepts an array of initial values.
	sized := lib.Table()["buffer"]
	obj.Set("buffer", func(call goja.FunctionCall) goja.Value {
		if a, ok := call.Argument(0).(*goja.Object); ok && a.ClassName() == "Array" {
			var values []goja.Value
			if err := rt.ExportTo(a, &values); err != nil {
				panic(rt.NewTypeError("buffer: %s", err))
			}
			cells := make([]int32, len(values))
			for i, v := range values {
				cells[i] = cell(v)
			}
			return result(rt)(lib.BufferFrom(cells))
		}
		return result(rt)(sized(cells(call.Arguments)...))
	})

	obj.Set("asset", func(call goja.FunctionCall) goja.Value {
		return result(rt)(lib.Asset(call.Argument(0).String()))
	})
	return obj
}

func wrap(rt *goja.Runtime, fn vm.Builtin) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		return result(rt)(fn(cells(call.Arguments)...))
	}
}

func result(rt *goja.Runtime) func(int32, error) goja.Value {
	return func(v int32, err error) goja.Value {
		if err != nil {
			panic(rt.NewGoError(err))
		}
		return rt.ToValue(v)
	}
}

// cells converts call arguments, dropping trailing undefined values so an
// omitted optional argument stays omitted.
func cells(args []goja.Value) []int32 {
	n := len(args)
	for n > 0 && goja.IsUndefined(args[n-1]) {
		n--
	}
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = cell(args[i])
	}
	return out
}

// cell coerces a script value to a cell the way ToInt32 does: non-numbers
// read as 0, fractions truncate and everything else wraps modulo 2^32.
func cell(v goja.Value) int32 {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0
	}
	f := v.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), 1<<32)
	if f < 0 {
		f += 1 << 32
	}
	return int32(uint32(f))
}
