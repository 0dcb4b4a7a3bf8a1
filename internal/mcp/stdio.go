package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/payram/file-manager-mcp-server/internal/protocol"
)

// maxLineBytes bounds a single request line.
const maxLineBytes = 4 * 1024 * 1024

// Serve reads one JSON-RPC request per line from r and writes one response
// line per request to w, flushing after each. Blank lines are skipped. A line
// that fails to parse, or is longer than the line limit, gets a parse error
// with id null and the loop continues. Serve returns nil at end of input.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	br := bufio.NewReaderSize(r, 64*1024)
	bw := bufio.NewWriter(w)
	s.log.WithField("tools", s.toolbox.Len()).Info("serving stdio")

	for {
		raw, tooLong, err := nextLine(br, s.maxLine)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Info("input closed")
				return nil
			}
			return fmt.Errorf("reading requests: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var resp protocol.Response
		if tooLong {
			s.log.Warnf("request line over %d bytes dropped", s.maxLine)
			resp = protocol.NewError(nil, protocol.Errorf(protocol.CodeParseError, "Parse error: request line exceeds %d bytes", s.maxLine))
		} else {
			line := bytes.TrimSpace(raw)
			if len(line) == 0 {
				continue
			}
			req, parseErr := protocol.ParseRequest(line)
			if parseErr != nil {
				s.log.Warnf("rejected request line: %s", parseErr.Message)
				resp = protocol.NewError(req.ID, parseErr)
			} else {
				resp = s.Handle(ctx, req)
			}
		}

		if err := writeLine(bw, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

// nextLine returns the next line including its terminator. A line longer than
// limit is read to its end and reported as tooLong without being kept. A final
// line without a newline is returned before io.EOF.
func nextLine(br *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > limit+1 {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil:
			return line, tooLong, nil
		case errors.Is(err, io.EOF) && (len(line) > 0 || tooLong):
			return line, tooLong, nil
		default:
			return nil, false, err
		}
	}
}

func writeLine(bw *bufio.Writer, resp protocol.Response) error {
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		fallback := protocol.NewError(resp.ID, protocol.Errorf(protocol.CodeInternalError, "Internal error: encode response: %v", err))
		if err := enc.Encode(fallback); err != nil {
			return err
		}
	}
	return bw.Flush()
}
