package cache

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func newTestSidecar(t *testing.T, dir string, expose []string) *Sidecar {
	t.Helper()
	return NewSidecar("127.0.0.1:0", dir, expose, zap.NewNop())
}

func get(s *Sidecar, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGetFileServesMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "abc123.md", "# Cached Report\n")
	s := newTestSidecar(t, dir, nil)

	rec := get(s, "/cache/abc123")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/markdown" {
		t.Errorf("expected text/markdown, got %q", ct)
	}
	if rec.Body.String() != "# Cached Report\n" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestGetFileMissingKey(t *testing.T) {
	s := newTestSidecar(t, t.TempDir(), nil)

	rec := get(s, "/cache/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "File nope.md not found in cache.") {
		t.Errorf("unexpected error body: %s", rec.Body.String())
	}
}

func TestGetFileRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "secret.md", "keep out")
	s := newTestSidecar(t, dir, nil)

	// The router cleans URL paths, so feed hostile keys straight to the
	// handler.
	for _, key := range []string{"..", ".", "../secret", `..\secret`} {
		req := mux.SetURLVars(httptest.NewRequest("GET", "/cache/x", nil), map[string]string{"key": key})
		rec := httptest.NewRecorder()
		s.handleGetFile(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("key %q: expected 404, got %d", key, rec.Code)
		}
	}
}

func TestGetFileHonoursExposePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "report-1.md", "visible")
	writeFile(t, dir, "draft-1.md", "hidden")
	s := newTestSidecar(t, dir, []string{"report-*.md"})

	if rec := get(s, "/cache/report-1"); rec.Code != http.StatusOK {
		t.Errorf("expected the exposed file to be served, got %d", rec.Code)
	}
	if rec := get(s, "/cache/draft-1"); rec.Code != http.StatusNotFound {
		t.Errorf("expected the unexposed file to be hidden, got %d", rec.Code)
	}
}

func TestListCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.md", "1")
	writeFile(t, dir, "two.md", "2")
	writeFile(t, dir, "notes.txt", "not markdown")
	s := newTestSidecar(t, dir, nil)

	rec := get(s, "/cache")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	files := resp["files"]
	if len(files) != 2 {
		t.Fatalf("expected 2 markdown files listed, got %v", files)
	}
	for _, f := range files {
		if f != "one.md" && f != "two.md" {
			t.Errorf("unexpected file in listing: %s", f)
		}
	}
}

func TestListCacheEmptyDirectory(t *testing.T) {
	s := newTestSidecar(t, t.TempDir(), nil)

	rec := get(s, "/cache")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an empty cache, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No markdown files found in cache at ") {
		t.Errorf("unexpected error body: %s", rec.Body.String())
	}
}

func TestListCacheMissingDirectory(t *testing.T) {
	s := newTestSidecar(t, filepath.Join(t.TempDir(), "does-not-exist"), nil)

	rec := get(s, "/cache")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing cache dir, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Cache directory does not exist.") {
		t.Errorf("unexpected error body: %s", rec.Body.String())
	}
}
