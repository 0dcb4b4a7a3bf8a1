package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/payram/file-manager-mcp-server/internal/fsops"
	"github.com/payram/file-manager-mcp-server/internal/protocol"
)

// DefaultListPath is listed when list_files is called without a path.
const DefaultListPath = "."

// ListFilesArgs are the list_files arguments.
type ListFilesArgs struct {
	Path string `json:"path,omitempty" jsonschema_description:"Directory path to list files from (defaults to the current directory)"`
}

var listFilesSchema = GenerateSchema[ListFilesArgs]()

// listFilesTool lists the direct children of a directory.
type listFilesTool struct {
	fsys fsops.FS
}

// ListFiles constructs the list_files tool.
func ListFiles(fsys fsops.FS) *listFilesTool {
	return &listFilesTool{fsys: fsys}
}

func (t *listFilesTool) Descriptor() protocol.ToolDescriptor {
	return protocol.ToolDescriptor{
		Name:        "list_files",
		Description: "List files in a directory",
		InputSchema: listFilesSchema,
	}
}

func (t *listFilesTool) Invoke(_ context.Context, args map[string]any) (string, error) {
	var in ListFilesArgs
	if err := decodeArgs(args, &in); err != nil {
		return fmt.Sprintf("Error listing files: invalid arguments: %v", err), nil
	}
	if in.Path == "" {
		in.Path = DefaultListPath
	}
	return t.list(in.Path), nil
}

// list renders one line per regular file or directory, sorted by the rendered
// line. Symlinks, devices and other entry types are left out.
func (t *listFilesTool) list(path string) string {
	info, err := t.fsys.Stat(path)
	if err != nil {
		if fsops.IsNotExist(err) {
			return fmt.Sprintf("Error: Path '%s' does not exist", path)
		}
		return fmt.Sprintf("Error listing files: %v", err)
	}
	if !info.IsDir() {
		return fmt.Sprintf("Error: Path '%s' is not a directory", path)
	}

	entries, err := t.fsys.ReadDir(path)
	if err != nil {
		return fmt.Sprintf("Error listing files: %v", err)
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.Type().IsRegular():
			fi, err := e.Info()
			if err != nil {
				// removed since the directory was read
				continue
			}
			lines = append(lines, fmt.Sprintf("📄 %s (%d bytes)", e.Name(), fi.Size()))
		case e.IsDir():
			lines = append(lines, fmt.Sprintf("📁 %s/", e.Name()))
		}
	}

	if len(lines) == 0 {
		return fmt.Sprintf("Directory '%s' is empty", path)
	}

	sort.Strings(lines)
	return fmt.Sprintf("Contents of '%s':\n", path) + strings.Join(lines, "\n")
}
