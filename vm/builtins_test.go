package vm

import (
	"errors"
	"testing"
)

func TestTableCoversDocumentedBuiltins(t *testing.T) {
	lib := newTestLibrary()
	table := lib.Table()
	for _, d := range Docs() {
		_, ok := table[d.Name]
		if d.ScriptOnly() {
			if ok {
				t.Errorf("script-only builtin %q is in the table", d.Name)
			}
			continue
		}
		if !ok {
			t.Errorf("builtin %q is documented but missing from the table", d.Name)
		}
	}
	for name := range table {
		if _, ok := LookupDoc(name); !ok {
			t.Errorf("builtin %q has no documentation", name)
		}
	}
}

func TestCallThroughTable(t *testing.T) {
	lib := newTestLibrary()

	tests := []struct {
		name string
		args []int32
		want int32
	}{
		{"add", nil, 0},
		{"add", []int32{1, 2, 3}, 6},
		{"sub", nil, 0},
		{"sub", []int32{5, 1, 1}, 3},
		{"mul", []int32{65536, 65536}, 0},
		{"div", []int32{-7, 2}, -3},
		{"mod", []int32{-7, 2}, -1},
		{"eq", []int32{2, 2}, 1},
		{"lte", []int32{3, 2}, 0},
		{"random", []int32{1}, 0},
	}
	for _, tt := range tests {
		got, err := lib.Call(tt.name, tt.args...)
		if err != nil {
			t.Errorf("%s%v returned error: %v", tt.name, tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s%v = %d, want %d", tt.name, tt.args, got, tt.want)
		}
	}
}

func TestCallBufferRoundTrip(t *testing.T) {
	lib := newTestLibrary()

	id, err := lib.Call("buffer", 4)
	if err != nil {
		t.Fatalf("buffer returned error: %v", err)
	}
	if _, err := lib.Call("set", id, 3, 12); err != nil {
		t.Fatalf("set returned error: %v", err)
	}
	if v, _ := lib.Call("get", id, 3); v != 12 {
		t.Errorf("get = %d, want 12", v)
	}
	if v, _ := lib.Call("push", id, 8); v != 8 {
		t.Errorf("push = %d, want 8", v)
	}
	if v, _ := lib.Call("size", id); v != 5 {
		t.Errorf("size = %d, want 5", v)
	}
	if v, _ := lib.Call("pop", id); v != 8 {
		t.Errorf("pop = %d, want 8", v)
	}
	if v, _ := lib.Call("screen", id); v != 0 {
		t.Errorf("screen = %d, want 0", v)
	}

	// A missing size argument reads as 0, which is not a valid size.
	if _, err := lib.Call("buffer"); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("buffer() error = %v, want ErrInvalidSize", err)
	}
}

func TestCallUnknownBuiltin(t *testing.T) {
	lib := newTestLibrary()
	_, err := lib.Call("jump", 1)
	if !errors.Is(err, ErrUnknownBuiltin) {
		t.Errorf("Call(jump) error = %v, want ErrUnknownBuiltin", err)
	}
}

func TestAssetIsScriptOnly(t *testing.T) {
	d, ok := LookupDoc("asset")
	if !ok {
		t.Fatal("asset is not documented")
	}
	if !d.ScriptOnly() {
		t.Error("asset should be documented as script-only")
	}
	if d, _ := LookupDoc("buffer"); d.ScriptOnly() {
		t.Error("buffer should be callable through the table")
	}

	lib := NewLibrary(NewSession(WithAssets(map[string][]int32{"logo": {7}})))
	if _, err := lib.Call("asset"); !errors.Is(err, ErrUnknownBuiltin) {
		t.Errorf("Call(asset) error = %v, want ErrUnknownBuiltin", err)
	}
	if _, err := lib.Asset("logo"); err != nil {
		t.Errorf("Asset(logo) error = %v", err)
	}
}

func TestErrorMessageNamesOperation(t *testing.T) {
	lib := newTestLibrary()
	id, _ := lib.Buffer(1)
	_, err := lib.Get(id, 4)

	var opErr *Error
	if !errors.As(err, &opErr) {
		t.Fatalf("Get error %v is not a *Error", err)
	}
	if opErr.Op != "get" {
		t.Errorf("Op = %q, want %q", opErr.Op, "get")
	}
	want := "semigrafx: get: index out of range (buffer 0): index 4, length 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
