// Package manifest handles semigrafx.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the project file looked up by FindAndLoad.
const FileName = "semigrafx.toml"

// Compiler transports.
const (
	TransportConnect = "connect"
	TransportGRPC    = "grpc"
)

// Manifest represents a semigrafx.toml project configuration.
type Manifest struct {
	Project  Project  `toml:"project"`
	Compiler Compiler `toml:"compiler"`
	Server   Server   `toml:"server"`
	Catalog  Catalog  `toml:"catalog"`
	Session  Session  `toml:"session"`
	Assets   Assets   `toml:"assets"`
	Log      Log      `toml:"log"`

	// Dir is the directory containing the semigrafx.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Program string `toml:"program"`
}

// Compiler configures the remote compile endpoint.
type Compiler struct {
	Endpoint  string `toml:"endpoint"`
	Transport string `toml:"transport"`
	Timeout   string `toml:"timeout"`
}

// Server configures the display server.
type Server struct {
	Listen     string `toml:"listen"`
	SessionTTL string `toml:"session-ttl"`
}

// Catalog configures the program catalog database.
type Catalog struct {
	Path string `toml:"path"`
}

// Session configures new sessions.
type Session struct {
	Seed          int64  `toml:"seed"`
	ScriptTimeout string `toml:"script-timeout"`
}

// Assets configures the asset bundle offered to programs.
type Assets struct {
	Bundle string `toml:"bundle"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no semigrafx.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	if wd, err := os.Getwd(); err == nil {
		m.Dir = wd
	}
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Project.Program == "" {
		m.Project.Program = "charmap"
	}
	if m.Compiler.Transport == "" {
		m.Compiler.Transport = TransportConnect
	}
	if m.Compiler.Timeout == "" {
		m.Compiler.Timeout = "10s"
	}
	if m.Server.Listen == "" {
		m.Server.Listen = ":8091"
	}
	if m.Server.SessionTTL == "" {
		m.Server.SessionTTL = "30m"
	}
	if m.Catalog.Path == "" {
		m.Catalog.Path = filepath.Join(".semigrafx", "catalog.db")
	}
	if m.Log.Verbosity == 0 {
		m.Log.Verbosity = 1
	}
}

// Load parses a semigrafx.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a semigrafx.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Write stores the manifest as semigrafx.toml in dir.
func (m *Manifest) Write(dir string) error {
	path := filepath.Join(dir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return f.Close()
}

// Validate checks values that cannot be defaulted.
func (m *Manifest) Validate() error {
	switch m.Compiler.Transport {
	case TransportConnect, TransportGRPC:
	default:
		return fmt.Errorf("compiler.transport must be %q or %q, got %q",
			TransportConnect, TransportGRPC, m.Compiler.Transport)
	}
	for key, v := range map[string]string{
		"compiler.timeout":       m.Compiler.Timeout,
		"server.session-ttl":     m.Server.SessionTTL,
		"session.script-timeout": m.Session.ScriptTimeout,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if m.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative")
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// CompileTimeout returns the compiler request timeout.
func (m *Manifest) CompileTimeout() time.Duration {
	d, _ := parseDuration(m.Compiler.Timeout)
	return d
}

// SessionTTL returns how long an idle server session is kept.
func (m *Manifest) SessionTTL() time.Duration {
	d, _ := parseDuration(m.Server.SessionTTL)
	return d
}

// ScriptTimeout returns the per-call script limit, zero for none.
func (m *Manifest) ScriptTimeout() time.Duration {
	d, _ := parseDuration(m.Session.ScriptTimeout)
	return d
}

// Seed returns the configured random seed and whether one was set.
func (m *Manifest) Seed() (uint64, bool) {
	return uint64(m.Session.Seed), m.Session.Seed != 0
}

// CatalogPath returns the absolute path of the catalog database.
func (m *Manifest) CatalogPath() string {
	return m.resolve(m.Catalog.Path)
}

// AssetsPath returns the absolute path of the asset bundle, or "" when
// none is configured.
func (m *Manifest) AssetsPath() string {
	if m.Assets.Bundle == "" {
		return ""
	}
	return m.resolve(m.Assets.Bundle)
}

// LogPath returns the log file path, or nil to log to stderr.
func (m *Manifest) LogPath() *string {
	if m.Log.File == "" {
		return nil
	}
	p := m.resolve(m.Log.File)
	return &p
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
