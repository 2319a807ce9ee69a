package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/okriek/inkwell/document"
)

func newTestHTTPServer(t *testing.T) (*HTTPServer, *Workspace) {
	t.Helper()
	ws := NewWorkspace(nil, t.TempDir(), zap.NewNop())
	return NewHTTPServer("127.0.0.1:0", NewMCPServer(ws), ws, zap.NewNop()), ws
}

func TestUploadDocumentReplacesCurrent(t *testing.T) {
	srv, ws := newTestHTTPServer(t)

	doc := document.New("uploaded report")
	if err := doc.AddTitle("Uploaded"); err != nil {
		t.Fatal(err)
	}
	raw, err := doc.MarshalStored()
	if err != nil {
		t.Fatalf("MarshalStored failed: %v", err)
	}
	body, _ := json.Marshal(map[string]json.RawMessage{"document": raw})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/document", bytes.NewReader(body))
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["message"] != "Document uploaded successfully." {
		t.Errorf("unexpected message: %q", resp["message"])
	}
	if resp["key"] != doc.Key {
		t.Errorf("expected key %s in receipt, got %s", doc.Key, resp["key"])
	}
	if resp["receipt"] == "" {
		t.Error("expected a receipt id")
	}

	markdown, err := ws.ExportMarkdown()
	if err != nil {
		t.Fatalf("the uploaded document should be current: %v", err)
	}
	if !strings.Contains(markdown, "# Uploaded") {
		t.Errorf("expected the uploaded title, got:\n%s", markdown)
	}
}

func TestUploadDocumentRejectsMissingField(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/document", strings.NewReader(`{"other": 1}`))
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No document provided in the request.") {
		t.Errorf("unexpected error body: %s", rec.Body.String())
	}
}

func TestUploadDocumentRejectsMalformedJSON(t *testing.T) {
	srv, _ := newTestHTTPServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/document", strings.NewReader("{not json"))
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
