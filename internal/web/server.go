// Package web serves the node's HTTP surface: a health root, a status
// endpoint, and the share sync API consumed by peer nodes.
package web

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"homelink/internal/clock"
	"homelink/internal/constants"
	"homelink/internal/errors"
	"homelink/internal/nas"
)

// Server is the node's HTTP server. The sync endpoints delegate to
// the nas plugin so state bookkeeping stays in one place.
type Server struct {
	srv     *http.Server
	logger  zerolog.Logger
	clk     clock.Clock
	node    string
	version string
	started time.Time
	nas     *nas.Plugin
}

// New creates the server listening on addr.
func New(addr, node, version string, nasPlugin *nas.Plugin, logger zerolog.Logger, clk clock.Clock) *Server {
	s := &Server{
		logger:  logger.With().Str("component", "web").Logger(),
		clk:     clk,
		node:    node,
		version: version,
		started: clk.Now(),
		nas:     nasPlugin,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /check_hash", s.handleCheckHash)
	mux.HandleFunc("POST /download", s.handleDownload)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /remove", s.handleRemove)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routing for httptest.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run serves until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("web server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "web server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.WebShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "web server shutdown failed")
	}
	s.logger.Info().Msg("web server stopped")
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("homelink " + s.node + "\n"))
}

type statusResponse struct {
	Node    string `json:"node"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	State   string `json:"sync_state"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, statusResponse{
		Node:    s.node,
		Version: s.version,
		Uptime:  s.clk.Now().Sub(s.started).Round(time.Second).String(),
		State:   s.nas.State().String(),
	})
}

type checkHashRequest struct {
	Name string `json:"name"`
	Hash string `json:"hash_str"`
}

func (s *Server) handleCheckHash(w http.ResponseWriter, r *http.Request) {
	var req checkHashRequest
	if !s.readData(w, r, &req) {
		return
	}
	resp, err := s.nas.CheckHash(req.Name, req.Hash)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeData(w, resp)
}

type fileRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if !s.readData(w, r, &req) {
		return
	}
	content, mtime, err := s.nas.Store().ReadEncoded(req.Filename)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeData(w, nas.FilePayload{Filename: req.Filename, Content: content, MTime: mtime})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req nas.FilePayload
	if !s.readData(w, r, &req) {
		return
	}
	if err := s.nas.Store().WriteEncoded(req.Filename, req.Content, req.MTime); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeData(w, map[string]int{"result": 0})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if !s.readData(w, r, &req) {
		return
	}
	if err := s.nas.Store().Remove(req.Filename); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeData(w, map[string]int{"result": 0})
}

// readData decodes a {"data": ...} request envelope. On failure it
// answers 400 and returns false.
func (s *Server) readData(w http.ResponseWriter, r *http.Request, out any) bool {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		http.Error(w, "bad request envelope", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		http.Error(w, "bad request data", http.StatusBadRequest)
		return false
	}
	return true
}

// writeData answers with a {"data": ...} envelope.
func (s *Server) writeData(w http.ResponseWriter, data any) {
	s.writeJSON(w, map[string]any{"data": data})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// fail maps store errors to HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("request failed")
	switch {
	case stderrors.Is(err, errors.ErrFileNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case stderrors.Is(err, errors.ErrPathOutsideRoot):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
