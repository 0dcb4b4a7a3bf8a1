package tools

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/payram/file-manager-mcp-server/internal/fsops"
	"github.com/payram/file-manager-mcp-server/internal/protocol"
)

// DefaultMaxReadBytes is the largest file read_file returns.
const DefaultMaxReadBytes int64 = 1024 * 1024

// ReadFileArgs are the read_file arguments.
type ReadFileArgs struct {
	Path string `json:"path" jsonschema_description:"File path to read"`
}

var readFileSchema = GenerateSchema[ReadFileArgs]()

// readFileTool returns the text content of a single file.
type readFileTool struct {
	fsys     fsops.FS
	maxBytes int64
}

// ReadFile constructs the read_file tool. maxBytes <= 0 selects DefaultMaxReadBytes.
func ReadFile(fsys fsops.FS, maxBytes int64) *readFileTool {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxReadBytes
	}
	return &readFileTool{fsys: fsys, maxBytes: maxBytes}
}

func (t *readFileTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name:        "read_file",
		Description: "Read contents of a file",
		InputSchema: readFileSchema,
	}
}

func (t *readFileTool) Invoke(_ context.Context, args map[string]any) (string, error) {
	var in ReadFileArgs
	if err := decodeArgs(args, &in); err != nil {
		return fmt.Sprintf("Error reading file: invalid arguments: %v", err), nil
	}
	return t.read(in.Path), nil
}

// read checks size from metadata before the file is opened.
func (t *readFileTool) read(path string) string {
	info, err := t.fsys.Stat(path)
	if err != nil {
		if fsops.IsNotExist(err) {
			return fmt.Sprintf("Error: File '%s' does not exist", path)
		}
		return fmt.Sprintf("Error reading file: %v", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Sprintf("Error: '%s' is not a file", path)
	}
	if info.Size() > t.maxBytes {
		return fmt.Sprintf("Error: File '%s' is too large (max %s)", path, formatLimit(t.maxBytes))
	}

	data, err := t.fsys.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err)
	}
	if !utf8.Valid(data) {
		return fmt.Sprintf("Error: Cannot read '%s' - appears to be a binary file", path)
	}

	return fmt.Sprintf("Contents of '%s':\n\n%s", path, data)
}

func formatLimit(n int64) string {
	switch {
	case n%(1024*1024) == 0:
		return fmt.Sprintf("%dMB", n/(1024*1024))
	case n%1024 == 0:
		return fmt.Sprintf("%dKB", n/1024)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
