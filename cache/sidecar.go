// Package cache implements the sidecar file server that deterministically
// exposes finished documents from the local cache directory over plain
// HTTP.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Sidecar serves markdown files from the cache directory.
type Sidecar struct {
	dir    string
	expose []string
	router *mux.Router
	logger *zap.Logger
	server *http.Server
}

// NewSidecar creates a sidecar serving files from dir. Only files matching
// one of the expose glob patterns are listed and served; an empty pattern
// list exposes `*.md`.
func NewSidecar(addr, dir string, expose []string, logger *zap.Logger) *Sidecar {
	if len(expose) == 0 {
		expose = []string{"*.md"}
	}
	s := &Sidecar{
		dir:    dir,
		expose: expose,
		router: mux.NewRouter(),
		logger: logger,
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.router.HandleFunc("/cache", s.handleListCache).Methods("GET")
	s.router.HandleFunc("/cache/{key}", s.handleGetFile).Methods("GET")

	return s
}

// Start begins listening and serving HTTP requests. It blocks until the
// server is shut down or encounters a fatal error.
func (s *Sidecar) Start() error {
	s.logger.Info("cache sidecar starting",
		zap.String("addr", s.server.Addr),
		zap.String("dir", s.dir))
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests and stops the server.
func (s *Sidecar) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleGetFile serves a single markdown file from the cache directory.
func (s *Sidecar) handleGetFile(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	name := key + ".md"

	// The key must name a file directly inside the cache directory.
	if strings.ContainsAny(key, "/\\") || key == "." || key == ".." {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("File %s not found in cache.", name))
		return
	}
	if !s.exposed(name) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("File %s not found in cache.", name))
		return
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("File %s not found in cache.", name))
		return
	}

	w.Header().Set("Content-Type", "text/markdown")
	http.ServeFile(w, r, path)
}

// handleListCache lists the exposed files in the cache directory.
func (s *Sidecar) handleListCache(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Cache directory does not exist.")
		return
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if s.exposed(entry.Name()) {
			files = append(files, entry.Name())
		}
	}

	if len(files) == 0 {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("No markdown files found in cache at %s", s.dir))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string][]string{"files": files})
}

// exposed reports whether a file name matches any expose pattern.
func (s *Sidecar) exposed(name string) bool {
	for _, pattern := range s.expose {
		match, err := doublestar.Match(pattern, name)
		if err != nil {
			s.logger.Warn("invalid expose pattern", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		if match {
			return true
		}
	}
	return false
}

func (s *Sidecar) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Sidecar) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
