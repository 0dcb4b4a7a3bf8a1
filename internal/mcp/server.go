package mcp

import (
	"context"
	"encoding/json"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/payram/file-manager-mcp-server/internal/protocol"
	"github.com/payram/file-manager-mcp-server/internal/version"
)

// Server handles MCP JSON-RPC requests against a toolbox.
// It keeps no state between requests beyond the toolbox itself.
type Server struct {
	toolbox *Toolbox
	info    protocol.ServerInfo
	log     *logrus.Entry
	maxLine int
}

// NewServer wires a toolbox into an MCP server. A nil logger discards output.
func NewServer(tb *Toolbox, logger *logrus.Entry) *Server {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}
	v := version.Get()
	return &Server{
		toolbox: tb,
		info:    protocol.ServerInfo{Name: version.ServerName, Version: v.Version},
		log:     logger,
		maxLine: maxLineBytes,
	}
}

// Handle routes a single request and always returns exactly one response.
func (s *Server) Handle(ctx context.Context, req protocol.Request) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("method", req.Method).Errorf("handler panic: %v", r)
			resp = protocol.NewError(req.ID, protocol.Errorf(protocol.CodeInternalError, "Internal error: %v", r))
		}
	}()

	s.log.WithFields(logrus.Fields{"method": req.Method, "id": string(req.ID)}).Debug("request")

	if rpcErr := req.Validate(); rpcErr != nil {
		return protocol.NewError(req.ID, rpcErr)
	}

	if !req.Method.Known() {
		s.log.WithField("method", req.Method).Warn("method not found")
		return protocol.NewError(req.ID, protocol.Errorf(protocol.CodeMethodNotFound, "Method not found: %s", req.Method))
	}

	switch req.Method {
	case protocol.MethodInitialize:
		s.logClient(req.Params)
		return protocol.NewResult(req.ID, protocol.InitializeResult{
			ProtocolVersion: protocol.MCPVersion,
			Capabilities:    protocol.Capabilities{Tools: map[string]any{}},
			ServerInfo:      s.info,
		})
	case protocol.MethodPing:
		return protocol.NewResult(req.ID, map[string]any{})
	case protocol.MethodToolsList:
		return protocol.NewResult(req.ID, protocol.ListResult{Tools: s.toolbox.Describe()})
	default:
		return s.callTool(ctx, req)
	}
}

func (s *Server) callTool(ctx context.Context, req protocol.Request) protocol.Response {
	params, rpcErr := protocol.DecodeCallParams(req.Params)
	if rpcErr != nil {
		return protocol.NewError(req.ID, rpcErr)
	}

	tool, ok := s.toolbox.Lookup(params.Name)
	if !ok {
		// An unknown tool is reported like any other failure to run a tool,
		// not as method-not-found. Clients match on -32603 for this case.
		s.log.WithField("tool", params.Name).Warn("unknown tool")
		return protocol.NewError(req.ID, protocol.Errorf(protocol.CodeInternalError, "Internal error: Unknown tool: %s", params.Name))
	}

	if name, missing := missingRequired(tool.Descriptor(), params.Arguments); missing {
		return protocol.NewError(req.ID, protocol.Errorf(protocol.CodeInvalidParams, "Invalid params: missing required argument %q", name))
	}

	text, err := tool.Invoke(ctx, params.Arguments)
	if err != nil {
		s.log.WithField("tool", params.Name).Warnf("tool failed: %v", err)
		return protocol.NewError(req.ID, protocol.Errorf(protocol.CodeInternalError, "Internal error: %v", err))
	}
	return protocol.NewResult(req.ID, protocol.TextResult(text))
}

func (s *Server) logClient(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var params protocol.InitializeParams
	if err := json.Unmarshal(raw, &params); err != nil {
		s.log.Debugf("ignoring malformed initialize params: %v", err)
		return
	}
	if params.ClientInfo != nil {
		s.log.WithFields(logrus.Fields{
			"client":          params.ClientInfo.Name,
			"client_version":  params.ClientInfo.Version,
			"client_protocol": params.ProtocolVersion,
		}).Info("client initialized")
	}
}
