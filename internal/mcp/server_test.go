package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/invopop/jsonschema"

	"github.com/payram/file-manager-mcp-server/internal/protocol"
)

type echoTool struct {
	name     string
	required []string
	err      error
	panics   bool
	calls    int
	lastArgs map[string]any
}

func (e *echoTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name:        e.name,
		Description: "echo " + e.name,
		InputSchema: &jsonschema.Schema{Type: "object", Required: e.required},
	}
}

func (e *echoTool) Invoke(_ context.Context, args map[string]any) (string, error) {
	e.calls++
	e.lastArgs = args
	if e.panics {
		panic("boom")
	}
	if e.err != nil {
		return "", e.err
	}
	return "echo:" + e.name, nil
}

func newTestServer(tools ...Tool) *Server {
	return NewServer(NewToolbox(tools...), nil)
}

func request(t *testing.T, line string) protocol.Request {
	t.Helper()
	req, rpcErr := protocol.ParseRequest([]byte(line))
	if rpcErr != nil {
		t.Fatalf("parse %s: %v", line, rpcErr)
	}
	return req
}

func roundTrip(t *testing.T, resp protocol.Response) map[string]json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return body
}

func TestHandleReturnsExactlyOneOutcome(t *testing.T) {
	s := newTestServer(&echoTool{name: "echo"})
	lines := []string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/list","params":{"cursor":"ignored"}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"echo"}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"nope"}}`,
		`{"jsonrpc":"2.0","id":6,"method":"tools/call"}`,
		`{"jsonrpc":"2.0","id":7,"method":"resources/list"}`,
		`{"jsonrpc":"1.0","id":8,"method":"ping"}`,
	}
	for i, line := range lines {
		body := roundTrip(t, s.Handle(context.Background(), request(t, line)))
		_, hasResult := body["result"]
		_, hasError := body["error"]
		if hasResult == hasError {
			t.Fatalf("line %d: expected exactly one of result/error, got %v", i, body)
		}
		if want := strconv.Itoa(i + 1); string(body["id"]) != want {
			t.Fatalf("line %d: id not echoed, got %s", i, body["id"])
		}
	}
}

func TestHandleEchoesIDShapes(t *testing.T) {
	s := newTestServer()
	for _, id := range []string{`42`, `"req-7"`, `null`} {
		resp := s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":`+id+`,"method":"ping"}`))
		if string(resp.ID) != id {
			t.Fatalf("expected id %s, got %s", id, resp.ID)
		}
	}

	resp := s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","method":"ping"}`))
	if string(resp.ID) != "null" {
		t.Fatalf("missing id should echo null, got %s", resp.ID)
	}
}

func TestInitializeAnnouncesCapabilities(t *testing.T) {
	s := newTestServer()
	resp := s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"t","version":"0"}}}`))
	result, ok := resp.Result.(protocol.InitializeResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if result.ProtocolVersion != "2024-11-05" {
		t.Fatalf("unexpected protocol version %q", result.ProtocolVersion)
	}
	if result.Capabilities.Tools == nil {
		t.Fatalf("tools capability missing")
	}
	if result.ServerInfo.Name != "file-manager-server" {
		t.Fatalf("unexpected server name %q", result.ServerInfo.Name)
	}

	// malformed params are ignored
	resp = s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":2,"method":"initialize","params":[1,2]}`))
	if resp.Error != nil {
		t.Fatalf("initialize must always succeed, got %v", resp.Error)
	}
}

func TestToolsListKeepsRegistrationOrder(t *testing.T) {
	s := newTestServer(&echoTool{name: "zeta"}, &echoTool{name: "alpha"}, &echoTool{name: "mid"})
	for i := 0; i < 3; i++ {
		resp := s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
		list, ok := resp.Result.(protocol.ListResult)
		if !ok {
			t.Fatalf("unexpected result type %T", resp.Result)
		}
		var names []string
		for _, d := range list.Tools {
			names = append(names, d.Name)
		}
		if strings.Join(names, ",") != "zeta,alpha,mid" {
			t.Fatalf("unexpected order %v", names)
		}
	}
}

func TestToolsCallWrapsText(t *testing.T) {
	tool := &echoTool{name: "echo"}
	s := newTestServer(tool)

	resp := s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"k":"v"}}}`))
	result, ok := resp.Result.(protocol.CallResult)
	if !ok {
		t.Fatalf("unexpected result %T (%v)", resp.Result, resp.Error)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" || result.Content[0].Text != "echo:echo" {
		t.Fatalf("unexpected content %+v", result.Content)
	}
	if tool.lastArgs["k"] != "v" {
		t.Fatalf("arguments not passed through: %v", tool.lastArgs)
	}

	s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo"}}`))
	if tool.lastArgs == nil || len(tool.lastArgs) != 0 {
		t.Fatalf("missing arguments should arrive as an empty map, got %v", tool.lastArgs)
	}
}

// Unknown methods and unknown tools are reported differently: the first is
// method-not-found, the second an internal error, matching the reference server.
func TestUnknownMethodAndUnknownToolDiffer(t *testing.T) {
	s := newTestServer(&echoTool{name: "echo"})

	method := s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":1,"method":"tools/delete"}`))
	if method.Error == nil || method.Error.Code != protocol.CodeMethodNotFound {
		t.Fatalf("expected -32601, got %+v", method.Error)
	}
	if method.Error.Message != "Method not found: tools/delete" {
		t.Fatalf("unexpected message %q", method.Error.Message)
	}

	tool := s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"delete_file","arguments":{}}}`))
	if tool.Error == nil || tool.Error.Code != protocol.CodeInternalError {
		t.Fatalf("expected -32603, got %+v", tool.Error)
	}
	if tool.Error.Message != "Internal error: Unknown tool: delete_file" {
		t.Fatalf("unexpected message %q", tool.Error.Message)
	}
}

func TestToolsCallRequiredArguments(t *testing.T) {
	tool := &echoTool{name: "needs", required: []string{"path"}}
	s := newTestServer(tool)

	for _, params := range []string{`{"name":"needs"}`, `{"name":"needs","arguments":{"path":null}}`} {
		resp := s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":`+params+`}`))
		if resp.Error == nil || resp.Error.Code != protocol.CodeInvalidParams {
			t.Fatalf("params %s: expected -32602, got %+v", params, resp.Error)
		}
		if !strings.Contains(resp.Error.Message, `"path"`) {
			t.Fatalf("message should name the argument: %q", resp.Error.Message)
		}
	}
	if tool.calls != 0 {
		t.Fatalf("tool must not run without required arguments")
	}

	resp := s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"needs","arguments":{"path":"x"}}}`))
	if resp.Error != nil {
		t.Fatalf("unexpected error %+v", resp.Error)
	}
}

func TestToolFailuresBecomeInternalErrors(t *testing.T) {
	s := newTestServer(&echoTool{name: "fails", err: errors.New("disk on fire")}, &echoTool{name: "panics", panics: true})

	resp := s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"fails"}}`))
	if resp.Error == nil || resp.Error.Code != protocol.CodeInternalError || resp.Error.Message != "Internal error: disk on fire" {
		t.Fatalf("unexpected error %+v", resp.Error)
	}

	resp = s.Handle(context.Background(), request(t, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"panics"}}`))
	if resp.Error == nil || resp.Error.Code != protocol.CodeInternalError || !strings.Contains(resp.Error.Message, "boom") {
		t.Fatalf("unexpected error %+v", resp.Error)
	}
	if string(resp.ID) != "2" {
		t.Fatalf("id lost on panic: %s", resp.ID)
	}
}

func TestNewToolboxRejectsDuplicates(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for duplicate tool names")
		}
	}()
	NewToolbox(&echoTool{name: "a"}, &echoTool{name: "a"})
}

func TestToolboxLookup(t *testing.T) {
	tb := NewToolbox(&echoTool{name: "a"})
	if _, ok := tb.Lookup("a"); !ok {
		t.Fatalf("expected a to be found")
	}
	if _, ok := tb.Lookup("b"); ok {
		t.Fatalf("did not expect b")
	}
	if tb.Len() != 1 {
		t.Fatalf("unexpected len %d", tb.Len())
	}
}
