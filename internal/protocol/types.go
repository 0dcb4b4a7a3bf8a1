package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Version is the JSON-RPC version string carried on every message.
const Version = "2.0"

// MCPVersion is the protocol version announced by initialize.
const MCPVersion = "2024-11-05"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Method names a JSON-RPC method understood by the server.
type Method string

const (
	MethodInitialize Method = "initialize"
	MethodPing       Method = "ping"
	MethodToolsList  Method = "tools/list"
	MethodToolsCall  Method = "tools/call"
)

// Known reports whether m is one of the routed methods.
func (m Method) Known() bool {
	switch m {
	case MethodInitialize, MethodPing, MethodToolsList, MethodToolsCall:
		return true
	}
	return false
}

// Request represents a minimal JSON-RPC 2.0 request.
// ID is kept raw so numbers, strings and null echo back exactly as sent.
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  Method          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response models a JSON-RPC 2.0 response. Build it with NewResult or NewError.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError holds JSON-RPC error data.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Errorf builds a ResponseError with a formatted message.
func Errorf(code int, format string, args ...any) *ResponseError {
	return &ResponseError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewResult builds a successful response. A nil result is sent as an empty object
// so the result key is always present.
func NewResult(id json.RawMessage, result any) Response {
	if result == nil {
		result = struct{}{}
	}
	return Response{JSONRPC: Version, ID: normalizeID(id), Result: result}
}

// NewError builds an error response.
func NewError(id json.RawMessage, err *ResponseError) Response {
	if err == nil {
		err = &ResponseError{Code: CodeInternalError, Message: "Internal error"}
	}
	return Response{JSONRPC: Version, ID: normalizeID(id), Error: err}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(id)) == 0 {
		return json.RawMessage("null")
	}
	return id
}

// ParseRequest decodes a single request line. Only a line that is not a JSON
// object is a parse error, answered with id null. Once the object decodes, the
// id is kept even when other fields are malformed, so the returned Request
// carries the id to echo alongside any error: a non-string method is
// method-not-found and a non-string jsonrpc is an invalid request.
func ParseRequest(line []byte) (Request, *ResponseError) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return Request{}, Errorf(CodeParseError, "Parse error: %v", err)
	}
	if fields == nil {
		return Request{}, Errorf(CodeParseError, "Parse error: request must be a JSON object")
	}

	req := Request{ID: fields["id"], Params: fields["params"]}
	if raw, ok := fields["jsonrpc"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &req.JSONRPC); err != nil {
			return req, Errorf(CodeInvalidRequest, "Invalid request: jsonrpc must be a string, got %s", raw)
		}
	}
	if raw, ok := fields["method"]; ok && !isNull(raw) {
		var method string
		if err := json.Unmarshal(raw, &method); err != nil {
			return req, Errorf(CodeMethodNotFound, "Method not found: %s", raw)
		}
		req.Method = Method(method)
	}
	return req, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Validate checks the envelope fields that do not depend on the method.
func (r Request) Validate() *ResponseError {
	if r.JSONRPC != "" && r.JSONRPC != Version {
		return Errorf(CodeInvalidRequest, "Invalid request: unsupported jsonrpc version %q", r.JSONRPC)
	}
	return nil
}

// ClientInfo identifies the peer in initialize.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is the payload of an initialize request.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion,omitempty"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      *ClientInfo    `json:"clientInfo,omitempty"`
}

// ServerInfo identifies the server in the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities lists what the server offers. Only tools are declared.
type Capabilities struct {
	Tools map[string]any `json:"tools"`
}

// InitializeResult is the fixed capability announcement.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// ToolDescriptor describes a tool available from the MCP server.
type ToolDescriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema,omitempty"`
}

// ListResult is the payload for tools/list.
type ListResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

// CallParams represents parameters for tools/call.
type CallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// DecodeCallParams decodes tools/call params. A missing or null arguments
// field becomes an empty map.
func DecodeCallParams(raw json.RawMessage) (CallParams, *ResponseError) {
	var params CallParams
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return params, Errorf(CodeInvalidParams, "Invalid params: tool name required")
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return CallParams{}, Errorf(CodeInvalidParams, "Invalid params: %v", err)
	}
	if params.Name == "" {
		return CallParams{}, Errorf(CodeInvalidParams, "Invalid params: tool name required")
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}
	return params, nil
}

// ContentPart is a single piece of tool output.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the payload for a successful tool invocation.
type CallResult struct {
	Content []ContentPart `json:"content"`
}

// TextResult wraps text in a single content item of type "text".
func TextResult(text string) CallResult {
	return CallResult{Content: []ContentPart{{Type: "text", Text: text}}}
}
