// Package tools implements the file tools served over MCP.
//
// Each tool reports filesystem problems as result text, never as an RPC
// error, so a caller always gets a readable answer for a bad path.
package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema derives a tool input schema from an argument struct. Fields
// without omitempty are listed as required.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	return schema
}

// decodeArgs converts the generic arguments mapping into a typed struct.
func decodeArgs(args map[string]any, v any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
