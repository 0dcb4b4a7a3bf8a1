// Package repl is the interactive front end of the file MCP client.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/payram/file-manager-mcp-server/internal/protocol"
)

const prompt = "\nmcp> "

const defaultLogLines = 20

// Driver is the session surface the loop needs. Each method is one RPC at most.
type Driver interface {
	ListTools(ctx context.Context) []protocol.ToolDescriptor
	CallTool(ctx context.Context, name string, args map[string]any) string
	Logs(n int) []string
}

// Usage lists the commands understood by Run.
const Usage = `Commands:
  list        - Show available tools
  ls [path]   - List files in directory (default .)
  cat <file>  - Read file contents
  logs [n]    - Show the last n lines the server wrote to stderr
  help        - Show this help
  quit        - Exit`

// Run reads commands from in until quit, end of input or ctx cancellation.
// A failing command prints a message and the loop continues.
func Run(ctx context.Context, in io.Reader, out io.Writer, d Driver) error {
	fmt.Fprintln(out, "\n🎯 MCP Interactive Session")
	fmt.Fprintln(out, Usage)
	fmt.Fprintln(out, strings.Repeat("-", 40))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, prompt)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\n👋 Goodbye!")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			if quit := Execute(ctx, d, out, line); quit {
				return nil
			}
		}
	}
}

// Execute runs a single command line and reports whether the session should end.
func Execute(ctx context.Context, d Driver, out io.Writer, line string) bool {
	line = strings.TrimSpace(line)
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "":
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(out, Usage)
	case "list":
		tools := d.ListTools(ctx)
		fmt.Fprintln(out, "\n📋 Available Tools:")
		for _, t := range tools {
			fmt.Fprintf(out, "  • %s: %s\n", t.Name, t.Description)
		}
	case "ls":
		if arg == "" {
			arg = "."
		}
		fmt.Fprintf(out, "\n%s\n", d.CallTool(ctx, "list_files", map[string]any{"path": arg}))
	case "cat":
		if arg == "" {
			fmt.Fprintln(out, "❌ Please provide a file path")
			return false
		}
		fmt.Fprintf(out, "\n%s\n", d.CallTool(ctx, "read_file", map[string]any{"path": arg}))
	case "logs":
		n := defaultLogLines
		if arg != "" {
			v, err := strconv.Atoi(arg)
			if err != nil || v <= 0 {
				fmt.Fprintln(out, "❌ logs takes a positive line count")
				return false
			}
			n = v
		}
		logs := d.Logs(n)
		if len(logs) == 0 {
			fmt.Fprintln(out, "(no server output)")
			return false
		}
		for _, l := range logs {
			fmt.Fprintln(out, l)
		}
	default:
		fmt.Fprintln(out, "❌ Unknown command. Type 'help' for commands or 'quit' to exit.")
	}
	return false
}
