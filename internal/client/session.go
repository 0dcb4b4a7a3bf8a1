// Package client drives a file MCP server over its stdin/stdout.
//
// A Session has at most one request in flight. Each call writes one request
// line and blocks until one response line is read, so ids are only checked,
// never used to reorder responses.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/payram/file-manager-mcp-server/internal/protocol"
)

var (
	// ErrNotRunning is returned when no server is attached to the session.
	ErrNotRunning = errors.New("server not started")
	// ErrNoResponse is returned when the server closes its output before answering.
	ErrNoResponse = errors.New("no response from server")
	// ErrSessionBroken is returned after a call was abandoned mid-exchange; a
	// late response would otherwise be read as the answer to the next call.
	ErrSessionBroken = errors.New("session out of sync")
)

// Config controls how a Session spawns and talks to the server.
// CallTimeout of zero blocks each call until a line arrives.
// TerminateTimeout is how long Stop waits after SIGTERM before SIGKILL.
type Config struct {
	Command          []string
	Env              []string
	CallTimeout      time.Duration
	TerminateTimeout time.Duration
	StderrLines      int
	Logger           *logrus.Entry
	// Diagnostics receives one-line, user-facing failure notes from
	// Initialize, ListTools and CallTool. Nil discards them.
	Diagnostics io.Writer
}

// Session is one client-to-server connection lifetime.
type Session struct {
	cfg    Config
	log    *logrus.Entry
	stderr *lineBuffer

	mu      sync.Mutex
	nextID  int64
	running bool
	broken  bool
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lines   chan []byte
	readErr error
	// done tells readLoop to stop delivering; readDone closes when it has returned.
	done     chan struct{}
	readDone chan struct{}
}

// NewSession builds a session that spawns cfg.Command on Start.
func NewSession(cfg Config) *Session {
	if cfg.TerminateTimeout <= 0 {
		cfg.TerminateTimeout = 5 * time.Second
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = io.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}
	return &Session{
		cfg:    cfg,
		log:    logger,
		stderr: newLineBuffer(cfg.StderrLines),
		nextID: 1,
	}
}

// NewPipeSession drives a server that is already connected through r and w.
// Stop closes w.
func NewPipeSession(r io.Reader, w io.WriteCloser, cfg Config) *Session {
	s := NewSession(cfg)
	s.attach(r, w)
	return s
}

// Start spawns the server process. There is no startup delay: the server is
// ready once it answers Initialize.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("session already started")
	}
	if len(s.cfg.Command) == 0 {
		return errors.New("no server command configured")
	}

	cmd := exec.Command(s.cfg.Command[0], s.cfg.Command[1:]...)
	cmd.Env = append(os.Environ(), s.cfg.Env...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start server %s: %w", s.cfg.Command[0], err)
	}
	s.log.WithField("pid", cmd.Process.Pid).Infof("started %v", s.cfg.Command)

	s.cmd = cmd
	s.attach(stdout, stdin)
	go s.pipeStderr(stderr)
	return nil
}

func (s *Session) attach(r io.Reader, w io.WriteCloser) {
	s.stdin = w
	s.lines = make(chan []byte)
	s.done = make(chan struct{})
	s.readDone = make(chan struct{})
	s.running = true
	s.broken = false
	go s.readLoop(r, s.lines, s.done, s.readDone)
}

// readLoop forwards output lines until the stream ends or done closes. A line
// nobody waits for, such as the late answer to a timed out call, is dropped at Stop.
func (s *Session) readLoop(r io.Reader, lines chan<- []byte, done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	defer close(lines)
	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			select {
			case lines <- line:
			case <-done:
				return
			}
		}
		if err != nil {
			// published to readers by the close of lines
			if !errors.Is(err, io.EOF) {
				s.readErr = err
			}
			return
		}
	}
}

func (s *Session) pipeStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		s.stderr.Add(line)
		s.log.WithField("stream", "stderr").Debug(line)
	}
}

// Logs returns up to n of the latest lines the server wrote to stderr.
func (s *Session) Logs(n int) []string {
	return s.stderr.Tail(n)
}

// Running reports whether a server is attached.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Reply is one decoded response line.
type Reply struct {
	ID  int64
	Raw []byte
}

// Get reads a field of the response with a gjson path such as "result.tools".
func (r Reply) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Raw, path)
}

// HasResult reports whether the response carries a result.
func (r Reply) HasResult() bool {
	return r.Get("result").Exists()
}

// Err returns the error object of the response, or nil.
func (r Reply) Err() *protocol.ResponseError {
	e := r.Get("error")
	if !e.Exists() {
		return nil
	}
	return &protocol.ResponseError{Code: int(e.Get("code").Int()), Message: e.Get("message").String()}
}

// Call sends one request and blocks until its response line is read. The id
// is the session counter, which then advances.
func (s *Session) Call(ctx context.Context, method protocol.Method, params any) (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return Reply{}, ErrNotRunning
	}
	if s.broken {
		return Reply{}, ErrSessionBroken
	}

	id := s.nextID
	s.nextID++

	req := protocol.Request{
		JSONRPC: protocol.Version,
		ID:      json.RawMessage(strconv.FormatInt(id, 10)),
		Method:  method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return Reply{}, fmt.Errorf("encode params: %w", err)
		}
		req.Params = raw
	}
	line, err := json.Marshal(req)
	if err != nil {
		return Reply{}, fmt.Errorf("encode request: %w", err)
	}

	s.log.WithFields(logrus.Fields{"id": id, "method": method}).Debug("call")
	if _, err := s.stdin.Write(append(line, '\n')); err != nil {
		return Reply{}, fmt.Errorf("send %s: %w", method, err)
	}

	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}

	raw, err := s.readLine(ctx)
	if err != nil {
		return Reply{}, err
	}

	if !gjson.ValidBytes(raw) {
		return Reply{}, fmt.Errorf("decode response: invalid JSON: %q", raw)
	}
	reply := Reply{ID: id, Raw: raw}
	if got := reply.Get("id").Raw; got != strconv.FormatInt(id, 10) {
		s.broken = true
		return Reply{}, fmt.Errorf("%w: response id %s for request %d", ErrSessionBroken, got, id)
	}
	if reply.HasResult() == reply.Get("error").Exists() {
		return Reply{}, fmt.Errorf("malformed response: need exactly one of result or error: %s", raw)
	}
	return reply, nil
}

// readLine waits for the next non-blank line. Callers hold s.mu.
func (s *Session) readLine(ctx context.Context) ([]byte, error) {
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				if s.readErr != nil {
					return nil, fmt.Errorf("%w: %v", ErrNoResponse, s.readErr)
				}
				return nil, ErrNoResponse
			}
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			return line, nil
		case <-ctx.Done():
			s.broken = true
			return nil, fmt.Errorf("%w: %v", ErrSessionBroken, ctx.Err())
		}
	}
}

// Initialize performs the handshake. It never fails loudly: problems are
// logged and reported as false.
func (s *Session) Initialize(ctx context.Context, info protocol.ClientInfo) bool {
	reply, err := s.Call(ctx, protocol.MethodInitialize, protocol.InitializeParams{
		ProtocolVersion: protocol.MCPVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      &info,
	})
	if err != nil {
		s.log.Errorf("initialization error: %v", err)
		s.diag("Initialization error: %v", err)
		return false
	}
	if !reply.HasResult() {
		s.log.Errorf("initialization failed: %s", reply.Raw)
		s.diag("Initialization failed: %s", reply.Raw)
		return false
	}
	s.log.WithField("server", reply.Get("result.serverInfo.name").String()).Info("MCP connection initialized")
	return true
}

// ListTools returns the server's tools in the order it reports them, or an
// empty list when anything goes wrong.
func (s *Session) ListTools(ctx context.Context) []protocol.ToolDescriptor {
	reply, err := s.Call(ctx, protocol.MethodToolsList, nil)
	if err != nil {
		s.log.Errorf("list tools: %v", err)
		s.diag("Error listing tools: %v", err)
		return []protocol.ToolDescriptor{}
	}
	if rpcErr := reply.Err(); rpcErr != nil {
		s.log.Errorf("list tools: %v", rpcErr)
		s.diag("Failed to list tools: %s", rpcErr.Message)
		return []protocol.ToolDescriptor{}
	}

	tools := reply.Get("result.tools")
	var out []protocol.ToolDescriptor
	if !tools.IsArray() {
		s.diag("Error listing tools: result has no tools array")
		return []protocol.ToolDescriptor{}
	}
	if err := json.Unmarshal([]byte(tools.Raw), &out); err != nil {
		s.log.Errorf("decode tools: %v", err)
		s.diag("Error listing tools: %v", err)
		return []protocol.ToolDescriptor{}
	}
	return out
}

// CallTool invokes a tool and returns its text. Failures come back as text too.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) string {
	reply, err := s.Call(ctx, protocol.MethodToolsCall, protocol.CallParams{Name: name, Arguments: args})
	if err != nil {
		s.log.WithField("tool", name).Errorf("call tool: %v", err)
		return fmt.Sprintf("Error calling tool: %v", err)
	}
	if reply.HasResult() {
		first := reply.Get("result.content.0")
		if !first.Exists() {
			return "No content returned"
		}
		return first.Get("text").String()
	}

	msg := reply.Get("error.message").String()
	if msg == "" {
		msg = "Unknown error"
	}
	return "Error: " + msg
}

// Stop terminates the server and waits for it to exit. Stopping a session
// that is not running does nothing.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	close(s.done)
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	_ = s.cmd.Process.Signal(syscall.SIGTERM)
	var exitErr error
	select {
	case exitErr = <-done:
	case <-time.After(s.cfg.TerminateTimeout):
		s.log.Warn("server ignored SIGTERM, killing")
		_ = s.cmd.Process.Kill()
		exitErr = <-done
	}
	s.log.Infof("server stopped: %s", exitSummary(exitErr))
	s.cmd = nil
	return nil
}

func exitSummary(err error) string {
	if err == nil {
		return "ok"
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return "signal " + ws.Signal().String()
		}
		return fmt.Sprintf("code=%d", ee.ExitCode())
	}
	return err.Error()
}

func (s *Session) diag(format string, args ...any) {
	fmt.Fprintf(s.cfg.Diagnostics, format+"\n", args...)
}
