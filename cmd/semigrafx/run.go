package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/chazu/semigrafx/catalog"
	"github.com/chazu/semigrafx/tui"
	"github.com/chazu/semigrafx/vm"
	"github.com/chazu/semigrafx/vm/wire"
)

// programSource names what to run: a catalog or built-in program, or a
// file read fresh on every load so reloads pick up edits.
type programSource struct {
	loader *catalog.Loader
	name   string
	file   string
	opts   []vm.SessionOption
}

func (p programSource) label() string {
	if p.file != "" {
		return filepath.Base(p.file)
	}
	return p.name
}

func (p programSource) factory(ctx context.Context) (vm.Factory, error) {
	if p.file == "" {
		return p.loader.Load(ctx, p.name)
	}
	data, err := os.ReadFile(p.file)
	if err != nil {
		return nil, err
	}
	text := string(data)
	if !isFactoryFile(p.file) {
		text, err = p.loader.Compile(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("compiling %s: %w", p.file, err)
		}
	}
	return p.loader.LoadFactory(p.label(), text)
}

// host builds and starts a host for the program.
func (p programSource) host(ctx context.Context) (*vm.Host, error) {
	f, err := p.factory(ctx)
	if err != nil {
		return nil, err
	}
	h := vm.NewHost(f, vm.WithName(p.label()), vm.WithSessionOptions(p.opts...))
	if err := h.Start(); err != nil {
		return nil, err
	}
	return h, nil
}

func isFactoryFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".js")
}

func run(ctx context.Context, src programSource, dump string) error {
	h, err := src.host(ctx)
	if err != nil {
		return err
	}
	defer h.Teardown()

	if dump != "" {
		data, err := wire.MarshalSnapshot(wire.Capture(h))
		if err != nil {
			return err
		}
		if err := os.WriteFile(dump, data, 0o644); err != nil {
			return err
		}
		log.Infof("wrote snapshot of %s to %s", h.Name(), dump)
		return nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(tui.Render(h.Frame()))
		return nil
	}

	m := tui.New(h, tui.WithReloader(func() (*vm.Host, error) {
		return src.host(ctx)
	}))
	err = tui.RunModel(m)
	// the model may have swapped in a reloaded host
	m.Host().Teardown()
	return err
}

func saveProgram(loader *catalog.Loader, id, file string) error {
	if file == "" {
		return errors.New("-save needs -file")
	}
	store := loader.Store()
	if store == nil {
		return errors.New("no catalog available")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	rec := catalog.Record{ID: id}
	if isFactoryFile(file) {
		if _, err := loader.LoadFactory(id, string(data)); err != nil {
			return err
		}
		rec.Factory = string(data)
	} else {
		rec.Source = string(data)
	}
	return store.Save(rec)
}

func loadAssets(path string) (map[string][]int32, error) {
	assets, err := wire.LoadAssets(path)
	if err != nil {
		return nil, fmt.Errorf("loading assets: %w", err)
	}
	return assets, nil
}
