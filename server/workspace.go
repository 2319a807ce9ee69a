package server

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/okriek/inkwell/document"
	"github.com/okriek/inkwell/errors"
)

// Workspace holds the document currently being edited plus its persistence
// backends. It is handed explicitly to every tool handler rather than
// living as package state, and its mutex keeps concurrent MCP sessions
// from interleaving edits.
type Workspace struct {
	mu       sync.Mutex
	current  *document.Document
	store    *Store
	cacheDir string
	logger   *zap.Logger
}

// NewWorkspace creates a workspace persisting documents to store and
// exported markdown to cacheDir. The store may be nil, in which case
// documents live only in memory for the lifetime of the process.
func NewWorkspace(store *Store, cacheDir string, logger *zap.Logger) *Workspace {
	return &Workspace{
		store:    store,
		cacheDir: cacheDir,
		logger:   logger,
	}
}

// Create replaces the current document with a fresh one derived from the
// prompt and returns it.
func (w *Workspace) Create(prompt string) (*document.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc := document.New(prompt)
	w.current = doc
	if err := w.persist(doc); err != nil {
		return nil, err
	}
	w.logger.Info("created document", zap.String("key", doc.Key))
	return doc, nil
}

// SetCurrent replaces the current document, as done by the upload
// endpoint.
func (w *Workspace) SetCurrent(doc *document.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.current = doc
	if err := w.persist(doc); err != nil {
		return err
	}
	w.logger.Info("replaced current document", zap.String("key", doc.Key))
	return nil
}

// Update runs fn against the current document under the workspace lock and
// persists the result. It fails when no document has been initialized.
func (w *Workspace) Update(fn func(*document.Document) error) (*document.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return nil, errors.New("document has not been initialized; create or upload a document first")
	}
	if err := fn(w.current); err != nil {
		return nil, err
	}
	if err := w.persist(w.current); err != nil {
		return nil, err
	}
	return w.current, nil
}

// ExportMarkdown renders the current document as markdown.
func (w *Workspace) ExportMarkdown() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return "", errors.New("document has not been initialized; create or upload a document first")
	}
	return w.current.ExportMarkdown(), nil
}

// SaveToCache writes the current document's markdown rendering into the
// cache directory as <key>.md, where the sidecar file server picks it up.
// It returns the document key.
func (w *Workspace) SaveToCache() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return "", errors.New("document has not been initialized; create or upload a document first")
	}
	if w.current.HasOpenList() {
		return "", errors.New("a list is currently open; close the list before saving the document")
	}

	if err := os.MkdirAll(w.cacheDir, 0755); err != nil {
		return "", errors.Wrapf(err, "could not create cache directory %s", w.cacheDir)
	}
	path := filepath.Join(w.cacheDir, w.current.Key+".md")
	if err := os.WriteFile(path, []byte(w.current.ExportMarkdown()), 0644); err != nil {
		return "", errors.Wrapf(err, "could not write cache file %s", path)
	}

	w.logger.Info("saved document to cache",
		zap.String("key", w.current.Key),
		zap.String("path", path))
	return w.current.Key, nil
}

// persist writes the document to the store when one is configured. Callers
// hold the workspace lock.
func (w *Workspace) persist(doc *document.Document) error {
	if w.store == nil {
		return nil
	}
	if err := w.store.Put(doc); err != nil {
		return errors.Wrapf(err, "failed to persist document %s", doc.Key)
	}
	return nil
}
