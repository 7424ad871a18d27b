// Package server exposes the query engine over HTTP. Each request builds,
// drives and drops its own cursor tree; the index itself is shared and
// read-only, so requests never contend.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bazhenov/tindex/internal/config"
	"github.com/bazhenov/tindex/internal/debug"
	"github.com/bazhenov/tindex/pkg/index"
	"github.com/bazhenov/tindex/pkg/postlist"
	"github.com/bazhenov/tindex/pkg/query"
)

const (
	cacheEntries  = 1024
	watchDebounce = 500 * time.Millisecond
)

// Server serves /search, /check and /terms over an Index.
type Server struct {
	cfg   config.Server
	ix    index.Index
	cache *queryCache
}

// New returns a server over ix listening per cfg.
func New(cfg config.Server, ix index.Index) *Server {
	return &Server{cfg: cfg, ix: ix, cache: newQueryCache(cacheEntries)}
}

// Run serves until ctx is cancelled, then shuts down gracefully. When the
// index is directory-backed, a filesystem watcher keeps the result cache in
// step with rebuilds.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Listen, err)
	}

	if dir, ok := s.ix.(*index.Directory); ok {
		if err := watchIndex(ctx, dir.Root(), s.cache, watchDebounce); err != nil {
			listener.Close()
			return fmt.Errorf("server: watch %s: %w", dir.Root(), err)
		}
	}

	srv := &http.Server{Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(listener) }()
	debug.Logf("server: listening on %s", listener.Addr())

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		<-errc // http.ErrServerClosed
		return nil
	}
}

// Handler returns the route table. Exposed separately so tests can drive
// the endpoints without a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /check", s.handleCheck)
	mux.HandleFunc("GET /terms", s.handleTerms)
	return mux
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("query")
	if text == "" {
		http.Error(w, "missing query parameter", http.StatusBadRequest)
		return
	}

	ids, ok := s.cache.get(text)
	if !ok {
		var err error
		ids, err = s.materialize(text)
		if err != nil {
			s.fail(w, text, err)
			return
		}
		s.cache.put(text, ids)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, id := range ids {
		fmt.Fprintf(w, "%d\n", id)
	}
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("query")
	if text == "" {
		http.Error(w, "missing query parameter", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id == postlist.NoDoc {
		http.Error(w, "missing or invalid id parameter", http.StatusBadRequest)
		return
	}

	c, err := query.Run(text, s.ix)
	if err != nil {
		s.fail(w, text, err)
		return
	}
	defer c.Close()

	found := c.Advance(id) == id
	if err := c.Err(); err != nil {
		s.fail(w, text, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%t\n", found)
}

func (s *Server) handleTerms(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.ix.(index.TermLister)
	if !ok {
		http.Error(w, "index does not enumerate terms", http.StatusNotFound)
		return
	}
	terms, err := lister.Terms()
	if err != nil {
		http.Error(w, "failed to list terms", http.StatusInternalServerError)
		debug.Logf("server: terms: %v", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, term := range terms {
		fmt.Fprintf(w, "%s\n", term)
	}
}

// materialize runs the query to completion. Results are collected before
// any byte is written, so a mid-stream decoder failure surfaces as a clean
// error response instead of a truncated body.
func (s *Server) materialize(text string) ([]uint64, error) {
	c, err := query.Run(text, s.ix)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	ids := []uint64{}
	for id := c.Current(); id != postlist.NoDoc; id = c.Next() {
		ids = append(ids, id)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// fail maps engine errors onto status codes: the caller's fault reads as
// 400, everything else as 500.
func (s *Server) fail(w http.ResponseWriter, text string, err error) {
	var parseErr *query.ParseError
	var notFound *index.TermNotFoundError
	switch {
	case errors.As(err, &parseErr), errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "query failed", http.StatusInternalServerError)
	}
	debug.Logf("server: query %q failed: %v", text, err)
}
