package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/semigrafx/catalog"
	"github.com/chazu/semigrafx/manifest"
	"github.com/chazu/semigrafx/programs"
	"github.com/chazu/semigrafx/vm"
	"github.com/chazu/semigrafx/vm/wire"
)

const blink = `(function (b) {
	var s;
	return {
		init: function () { s = b.buffer(1024); b.screen(s); b.set(s, 0, 65); },
		keydown: function (key) { b.set(s, 0, key); }
	};
})`

func newTestLoader(t *testing.T) *catalog.Loader {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return catalog.NewLoader(programs.Registry(), catalog.WithStore(store))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSaveAndRunFactoryFile(t *testing.T) {
	loader := newTestLoader(t)
	path := writeFile(t, "blink.js", blink)

	if err := saveProgram(loader, "blink", path); err != nil {
		t.Fatalf("saveProgram: %v", err)
	}
	ids, err := loader.IDs()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, id := range ids {
		found = found || id == "blink"
	}
	if !found {
		t.Errorf("IDs = %v, want blink listed", ids)
	}

	h, err := programSource{loader: loader, name: "blink"}.host(context.Background())
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if got := h.Frame()[0]; got != vm.AtlasFor(65) {
		t.Errorf("slot 0 = %+v, want A", got)
	}
}

func TestSaveRejectsBadFactory(t *testing.T) {
	loader := newTestLoader(t)
	path := writeFile(t, "bad.js", "(function (b) { return {")
	if err := saveProgram(loader, "bad", path); err == nil {
		t.Error("saveProgram should reject a factory that does not parse")
	}
	if err := saveProgram(loader, "none", ""); err == nil {
		t.Error("saveProgram without a file should fail")
	}
}

func TestRunFileWithoutCompiler(t *testing.T) {
	loader := newTestLoader(t)
	path := writeFile(t, "blink.sg", "anything")
	_, err := programSource{loader: loader, file: path}.host(context.Background())
	if err == nil {
		t.Fatal("source files need a compiler")
	}
}

func TestRunDumpsSnapshot(t *testing.T) {
	loader := newTestLoader(t)
	out := filepath.Join(t.TempDir(), "frame.cbor")
	src := programSource{loader: loader, file: writeFile(t, "blink.js", blink)}

	if err := run(context.Background(), src, out); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := wire.UnmarshalSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Name != "blink.js" {
		t.Errorf("Name = %q, want blink.js", snap.Name)
	}
	if codes := snap.Codes(); codes[0] != 65 {
		t.Errorf("codes[0] = %d, want 65", codes[0])
	}
}

func TestSessionOptionsLoadsAssets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.cbor")
	if err := wire.WriteAssets(path, map[string][]int32{"logo": {1, 2, 3}}); err != nil {
		t.Fatal(err)
	}
	m := manifest.Default()
	m.Session.Seed = 9

	opts, err := sessionOptions(m, 0, path)
	if err != nil {
		t.Fatal(err)
	}
	s := vm.NewSession(opts...)
	if names := s.AssetNames(); len(names) != 1 || names[0] != "logo" {
		t.Errorf("AssetNames = %v, want [logo]", names)
	}

	if _, err := sessionOptions(m, 0, filepath.Join(t.TempDir(), "missing.cbor")); err == nil {
		t.Error("a missing asset bundle should fail")
	}
}
