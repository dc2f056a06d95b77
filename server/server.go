// Package server exposes semigrafx sessions to remote clients: a
// Connect/gRPC display service and a stdio language server for program
// authors.
package server

import (
	"net/http"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/semigrafx/catalog"
	"github.com/chazu/semigrafx/compiler"
	"github.com/chazu/semigrafx/vm"
)

var log = commonlog.GetLogger("semigrafx.server")

// DisplayServer serves the display service for many sessions. It serves
// both gRPC and Connect (HTTP/JSON) on the same port.
type DisplayServer struct {
	worker   *Worker
	sessions *SessionStore
	mux      *http.ServeMux

	stopSweeper func()
}

// ServerOption configures a DisplayServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	sessionTTL  time.Duration
	sessionOpts []vm.SessionOption
	compileFunc compiler.Func
}

// WithSessionTTL sets how long an idle session is kept. Zero disables the
// sweeper.
func WithSessionTTL(ttl time.Duration) ServerOption {
	return func(c *serverConfig) { c.sessionTTL = ttl }
}

// WithSessionOptions applies options to every new session.
func WithSessionOptions(opts ...vm.SessionOption) ServerOption {
	return func(c *serverConfig) { c.sessionOpts = append(c.sessionOpts, opts...) }
}

// WithCompileFunc also serves fn as a compile endpoint on the same port.
func WithCompileFunc(fn compiler.Func) ServerOption {
	return func(c *serverConfig) { c.compileFunc = fn }
}

// New creates a DisplayServer resolving programs through loader.
func New(loader *catalog.Loader, opts ...ServerOption) *DisplayServer {
	cfg := &serverConfig{sessionTTL: 30 * time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}

	worker := NewWorker()
	sessions := NewSessionStore(worker)

	s := &DisplayServer{
		worker:   worker,
		sessions: sessions,
		mux:      http.NewServeMux(),
	}

	NewDisplayService(worker, sessions, loader, cfg.sessionOpts...).Mount(s.mux)
	if cfg.compileFunc != nil {
		s.mux.Handle(compiler.Handler(cfg.compileFunc))
	}

	if cfg.sessionTTL > 0 {
		interval := max(cfg.sessionTTL/6, time.Second)
		s.stopSweeper = sessions.StartSweeper(interval, cfg.sessionTTL)
	}
	return s
}

// Handler returns the HTTP handler serving every procedure.
func (s *DisplayServer) Handler() http.Handler {
	return s.mux
}

// Sessions returns the session store.
func (s *DisplayServer) Sessions() *SessionStore {
	return s.sessions
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *DisplayServer) ListenAndServe(addr string) error {
	protocols := new(http.Protocols)
	protocols.SetHTTP1(true)
	protocols.SetUnencryptedHTTP2(true)

	srv := &http.Server{
		Addr:      addr,
		Handler:   s.mux,
		Protocols: protocols,
	}
	log.Noticef("display server listening on %s", addr)
	log.Infof("  Connect (HTTP/JSON): http://%s/semigrafx.v1.DisplayService/CreateSession", addr)
	log.Infof("  gRPC (h2c, json):    grpc://%s", addr)
	return srv.ListenAndServe()
}

// Stop shuts down the sweeper and the worker, tearing down every session.
func (s *DisplayServer) Stop() {
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	for _, id := range s.sessions.IDs() {
		s.sessions.Destroy(id)
	}
	s.worker.Stop()
}
