package mcp

import (
	"context"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/payram/file-manager-mcp-server/internal/protocol"
)

// Tool defines the behavior of a single MCP tool.
// Invoke returns the text placed in the single content item of the result.
// Domain failures belong in that text; a returned error means the tool could
// not run at all and is reported as an internal error.
type Tool interface {
	Descriptor() protocol.ToolDescriptor
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Toolbox stores tools by name in registration order. It is read-only once built.
type Toolbox struct {
	tools *orderedmap.OrderedMap[string, Tool]
}

// NewToolbox constructs a toolbox with the provided tools. Registering two tools
// under the same name is a programming error and panics.
func NewToolbox(tools ...Tool) *Toolbox {
	m := orderedmap.New[string, Tool]()
	for _, t := range tools {
		desc := t.Descriptor()
		if _, dup := m.Set(desc.Name, t); dup {
			panic(fmt.Sprintf("mcp: tool %q registered twice", desc.Name))
		}
	}
	return &Toolbox{tools: m}
}

// Describe returns all tool descriptors in registration order.
func (tb *Toolbox) Describe() []protocol.ToolDescriptor {
	list := make([]protocol.ToolDescriptor, 0, tb.tools.Len())
	for pair := tb.tools.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, pair.Value.Descriptor())
	}
	return list
}

// Lookup resolves a tool by name.
func (tb *Toolbox) Lookup(name string) (Tool, bool) {
	return tb.tools.Get(name)
}

// Len reports how many tools are registered.
func (tb *Toolbox) Len() int {
	return tb.tools.Len()
}

// missingRequired returns the first argument named in the tool's schema
// "required" list that is absent or null in args.
func missingRequired(desc protocol.ToolDescriptor, args map[string]any) (string, bool) {
	if desc.InputSchema == nil {
		return "", false
	}
	for _, name := range desc.InputSchema.Required {
		if v, ok := args[name]; !ok || v == nil {
			return name, true
		}
	}
	return "", false
}
