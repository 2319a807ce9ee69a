package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/okriek/inkwell/document"
)

// HTTPServer exposes the MCP server over SSE plus the document upload
// route.
type HTTPServer struct {
	router *mux.Router
	ws     *Workspace
	logger *zap.Logger
	server *http.Server
}

// NewHTTPServer creates a fully-wired HTTPServer ready to Start().
func NewHTTPServer(addr string, mcpServer *mcp.Server, ws *Workspace, logger *zap.Logger) *HTTPServer {
	srv := &HTTPServer{
		router: mux.NewRouter(),
		ws:     ws,
		logger: logger,
	}
	srv.server = &http.Server{
		Addr:        addr,
		Handler:     srv.router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: the SSE stream stays open indefinitely.
	}

	sse := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return mcpServer
	})
	srv.router.PathPrefix("/sse").Handler(sse)
	srv.router.HandleFunc("/document", srv.handleUploadDocument).Methods("POST")

	return srv
}

// Start begins listening and serving HTTP requests. It blocks until the
// server is shut down or encounters a fatal error.
func (s *HTTPServer) Start() error {
	s.logger.Info("document server starting", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests and stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleUploadDocument replaces the document being edited with one
// supplied by an external client.
func (s *HTTPServer) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, ok := body["document"]
	if !ok {
		s.writeError(w, http.StatusBadRequest, "No document provided in the request.")
		return
	}

	doc, err := document.UnmarshalStored(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ws.SetCurrent(doc); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Document uploaded successfully.",
		"receipt": uuid.New().String(),
		"key":     doc.Key,
	})
}

// writeJSON serialises data as JSON and writes it to the response.
func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// writeError writes a JSON error envelope to the response.
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
