// semigrafx CLI - runs tile-grid programs in the terminal, serves them over
// Connect/gRPC, and offers editor support.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/semigrafx/catalog"
	"github.com/chazu/semigrafx/compiler"
	"github.com/chazu/semigrafx/manifest"
	"github.com/chazu/semigrafx/programs"
	"github.com/chazu/semigrafx/server"
	"github.com/chazu/semigrafx/vm"
)

var log = commonlog.GetLogger("semigrafx")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	configDir := flag.String("config", "", "Directory to search for "+manifest.FileName+" (default: current directory)")
	program := flag.String("program", "", "Program to run, by catalog or built-in name")
	file := flag.String("file", "", "Run a factory file (.js) or program source file")
	seed := flag.Int64("seed", 0, "Seed for random (0 uses the manifest seed or a random one)")
	assetsPath := flag.String("assets", "", "Asset bundle to make available to the program")
	dump := flag.String("dump", "", "Write a snapshot of the first frame to this file and exit")
	save := flag.String("save", "", "Store -file in the catalog under this id")
	list := flag.Bool("list", false, "List available programs")
	serveMode := flag.Bool("serve", false, "Start the display server (gRPC + Connect HTTP/JSON)")
	servePort := flag.Int("port", 0, "Display server port (used with --serve; default from manifest)")
	compileCmd := flag.String("compile-cmd", "", "With --serve, also serve the compile endpoint by running this command")
	lspMode := flag.Bool("lsp", false, "Start the language server on stdio")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: semigrafx [options]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a semigrafx program on a 32x32 tile grid.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  semigrafx                           # Run the manifest's program\n")
		fmt.Fprintf(os.Stderr, "  semigrafx -program life             # Run a built-in program\n")
		fmt.Fprintf(os.Stderr, "  semigrafx -file blink.js            # Run a factory file\n")
		fmt.Fprintf(os.Stderr, "  semigrafx -file blink.js -save blink  # Store it in the catalog\n")
		fmt.Fprintf(os.Stderr, "  semigrafx -program life -dump f.cbor  # Snapshot the first frame\n")
		fmt.Fprintf(os.Stderr, "\nServers:\n")
		fmt.Fprintf(os.Stderr, "  semigrafx --serve --port 8091       # Display server\n")
		fmt.Fprintf(os.Stderr, "  semigrafx --lsp                     # Language server on stdio\n")
	}
	flag.Parse()

	m, err := loadManifest(*configDir)
	if err != nil {
		fail(err)
	}
	verbosity := m.Log.Verbosity
	if *verbose {
		verbosity = max(verbosity, 2)
	}
	commonlog.Configure(verbosity, m.LogPath())

	var compilerClient *compiler.Client
	if m.Compiler.Endpoint != "" {
		compilerClient, err = compiler.New(m)
		if err != nil {
			fail(err)
		}
		defer compilerClient.Close()
	}

	loaderOpts := []catalog.LoaderOption{catalog.WithScriptTimeout(m.ScriptTimeout())}
	if compilerClient != nil {
		loaderOpts = append(loaderOpts, catalog.WithCompiler(compilerClient))
	}
	store, err := catalog.Open(m.CatalogPath())
	if err != nil {
		log.Warningf("catalog unavailable: %s", err)
	} else {
		defer store.Close()
		loaderOpts = append(loaderOpts, catalog.WithStore(store))
	}
	loader := catalog.NewLoader(programs.Registry(), loaderOpts...)

	sessionOpts, err := sessionOptions(m, *seed, *assetsPath)
	if err != nil {
		fail(err)
	}

	switch {
	case *lspMode:
		var c catalog.Compiler
		if compilerClient != nil {
			c = compilerClient
		}
		if err := server.NewLSP(c).Run(); err != nil {
			fail(err)
		}

	case *serveMode:
		addr := m.Server.Listen
		if *servePort != 0 {
			addr = fmt.Sprintf(":%d", *servePort)
		}
		opts := []server.ServerOption{
			server.WithSessionTTL(m.SessionTTL()),
			server.WithSessionOptions(sessionOpts...),
		}
		if *compileCmd != "" {
			fields := strings.Fields(*compileCmd)
			opts = append(opts, server.WithCompileFunc(compiler.Command(fields[0], fields[1:]...)))
		}
		srv := server.New(loader, opts...)
		defer srv.Stop()
		if err := srv.ListenAndServe(addr); err != nil {
			fail(fmt.Errorf("server: %w", err))
		}

	case *list:
		ids, err := loader.IDs()
		if err != nil {
			fail(err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}

	case *save != "":
		if err := saveProgram(loader, *save, *file); err != nil {
			fail(err)
		}
		fmt.Printf("Saved %s to %s\n", *save, loader.Store().Path())

	default:
		name := *program
		if name == "" && *file == "" {
			name = m.Project.Program
		}
		src := programSource{loader: loader, name: name, file: *file, opts: sessionOpts}
		if err := run(context.Background(), src, *dump); err != nil {
			fail(err)
		}
	}
}

func loadManifest(dir string) (*manifest.Manifest, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}
	return m, nil
}

func sessionOptions(m *manifest.Manifest, seed int64, assetsPath string) ([]vm.SessionOption, error) {
	var opts []vm.SessionOption
	if seed != 0 {
		opts = append(opts, vm.WithSeed(uint64(seed)))
	} else if s, ok := m.Seed(); ok {
		opts = append(opts, vm.WithSeed(s))
	}

	path := assetsPath
	if path == "" {
		path = m.AssetsPath()
	}
	if path != "" {
		assets, err := loadAssets(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, vm.WithAssets(assets))
	}
	return opts, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
