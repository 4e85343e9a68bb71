// Package server implements the development web server.
package server

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// LiveReloadPath is the server-sent events endpoint.
	LiveReloadPath = "/livereload"
	// ScriptPath serves the live-reload client.
	ScriptPath = "/livereload.js"
	// MetricsPath serves Prometheus metrics.
	MetricsPath = "/metrics"

	shutdownTimeout = 5 * time.Second
)

var scriptTag = []byte(`<script src="` + ScriptPath + `"></script>`)

// Options configures a Server.
type Options struct {
	// Addr is the listen address, for example "localhost:3000".
	Addr string
	// Dist is the directory served at "/".
	Dist string
	// LiveReload receives subscriptions on LiveReloadPath.
	LiveReload http.Handler
	// Script is the live-reload client served on ScriptPath.
	Script string
	// Metrics is served on MetricsPath when set.
	Metrics http.Handler
}

// Server serves the destination root with live-reload support.
type Server struct {
	opts   Options
	logger ports.Logger
}

// New creates a Server.
func New(opts Options, logger ports.Logger) *Server {
	return &Server{opts: opts, logger: logger}
}

// Handler returns the request multiplexer of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.opts.LiveReload != nil {
		mux.Handle("GET "+LiveReloadPath, s.opts.LiveReload)
		mux.HandleFunc("GET "+ScriptPath, s.serveScript)
	}
	if s.opts.Metrics != nil {
		mux.Handle("GET "+MetricsPath, s.opts.Metrics)
	}
	mux.Handle("/", s.static())
	return mux
}

// ListenAndServe serves on Options.Addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrServerFailed.Error()), "addr", s.opts.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down gracefully.
// Cancellation is not an error.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       300 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("serving " + s.opts.Dist + " on http://" + ln.Addr().String())

	select {
	case err := <-errCh:
		return zerr.Wrap(err, domain.ErrServerFailed.Error())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// SSE streams never go idle; close them forcibly.
		_ = srv.Close()
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return zerr.Wrap(err, domain.ErrServerFailed.Error())
	}
	return nil
}

func (s *Server) serveScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(s.opts.Script))
}

// static serves files from Dist. HTML pages get the live-reload script
// injected before </body>.
func (s *Server) static() http.Handler {
	files := http.FileServer(http.Dir(s.opts.Dist))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")

		name, ok := htmlPage(r.URL.Path)
		if !ok || s.opts.LiveReload == nil {
			files.ServeHTTP(w, r)
			return
		}

		data, err := os.ReadFile(filepath.Join(s.opts.Dist, filepath.FromSlash(name)))
		if err != nil {
			files.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(InjectScript(data))
	})
}

// htmlPage maps a request path to the slash path of the HTML file it names.
func htmlPage(p string) (string, bool) {
	dir := strings.HasSuffix(p, "/")
	p = path.Clean("/" + p)
	if dir {
		p = path.Join(p, "index.html")
	}
	if !strings.HasSuffix(p, ".html") {
		return "", false
	}
	return strings.TrimPrefix(p, "/"), true
}

// InjectScript inserts the live-reload script tag before the last </body>,
// or appends it when the page has no body end tag.
func InjectScript(page []byte) []byte {
	idx := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if idx < 0 {
		return append(bytes.Clone(page), scriptTag...)
	}
	out := make([]byte, 0, len(page)+len(scriptTag))
	out = append(out, page[:idx]...)
	out = append(out, scriptTag...)
	return append(out, page[idx:]...)
}
