package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/payram/file-manager-mcp-server/internal/protocol"
)

func TestHTTPHealth(t *testing.T) {
	srv := httptest.NewServer(newTestServer().Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHTTPPostRequest(t *testing.T) {
	h := newTestServer(&echoTool{name: "echo"}).Routes()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"echo"}}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var resp protocol.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(resp.ID) != "9" || resp.Error != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHTTPParseError(t *testing.T) {
	h := newTestServer().Routes()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id":`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var resp protocol.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != protocol.CodeParseError || string(resp.ID) != "null" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHTTPRejectsGetOnRoot(t *testing.T) {
	h := newTestServer().Routes()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestHTTPMistypedMethodEchoesID(t *testing.T) {
	h := newTestServer().Routes()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0","id":12,"method":5}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp protocol.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(resp.ID) != "12" || resp.Error == nil || resp.Error.Code != protocol.CodeMethodNotFound {
		t.Fatalf("unexpected response %s", rr.Body.String())
	}
}
