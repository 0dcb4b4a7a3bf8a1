package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/payram/file-manager-mcp-server/internal/protocol"
)

// Routes serves MCP JSON-RPC over HTTP: one request per POST to the root path,
// plus a health probe. Middlewares wrap only the JSON-RPC endpoint.
func (s *Server) Routes(middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Group(func(r chi.Router) {
		r.Use(middlewares...)
		r.Post("/", s.serveHTTP)
	})
	return r
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxLineBytes))
	if err != nil {
		writeJSON(w, protocol.NewError(nil, protocol.Errorf(protocol.CodeParseError, "Parse error: %v", err)), http.StatusBadRequest)
		return
	}

	req, parseErr := protocol.ParseRequest(body)
	if parseErr != nil {
		status := http.StatusOK
		if parseErr.Code == protocol.CodeParseError {
			status = http.StatusBadRequest
		}
		writeJSON(w, protocol.NewError(req.ID, parseErr), status)
		return
	}

	writeJSON(w, s.Handle(r.Context(), req), http.StatusOK)
}

// RunHTTP serves the MCP server on addr until ctx is cancelled.
func RunHTTP(ctx context.Context, server *Server, addr string, middlewares ...func(http.Handler) http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(middlewares...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	server.log.Infof("HTTP MCP server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, resp protocol.Response, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}
