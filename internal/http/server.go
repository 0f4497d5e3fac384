package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	contentTypeJSON        = "application/json"
	contentTypeText        = "text/plain; charset=utf-8"
	defaultHTTPPort        = 8080
	defaultShutdownTimeout = time.Second * 5
	maxBodyBytes           = 1 << 20
)

// Server is the HTTP lifecycle shared by the coordinator and the storage node.
type Server struct {
	name       string
	handler    http.Handler
	httpServer *http.Server
	URL        string
	addr       string
}

func newServer(name string, port int, handler http.Handler) *Server {
	if port == 0 {
		port = defaultHTTPPort
	}
	p := strconv.Itoa(port)
	return &Server{
		name:    name,
		handler: handler,
		URL:     "http://localhost:" + p,
		addr:    ":" + p,
	}
}

// Handler отдаёт роутер, удобно для httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "server", s.name, "error", err)
		}
	}()

	slog.Info("HTTP server started", "server", s.name, "addr", s.URL)
	return nil
}

// Stop stops the server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	return r
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Error encoding response", "error", err)
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Warn("Error writing response", "error", err)
	}
}

// keyParam достаёт {key} из пути. chi матчит по RawPath, если он есть,
// тогда значение приходит экранированным.
func keyParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return raw, nil
	}
	return url.PathUnescape(raw)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
