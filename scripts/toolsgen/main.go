package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/payram/file-manager-mcp-server/internal/app"
	"github.com/payram/file-manager-mcp-server/internal/config"
	"github.com/payram/file-manager-mcp-server/internal/protocol"
	"github.com/payram/file-manager-mcp-server/internal/version"
)

// Options captures tool catalog generation settings.
type Options struct {
	OutputDir   string
	YAML        bool
	GeneratedAt time.Time
}

// Catalog is the published description of the server's tools.
type Catalog struct {
	Server          protocol.ServerInfo       `json:"server"`
	ProtocolVersion string                    `json:"protocolVersion"`
	GeneratedAt     time.Time                 `json:"generatedAt"`
	Tools           []protocol.ToolDescriptor `json:"tools"`
}

// Result lists what Generate wrote.
type Result struct {
	Raw    []byte
	SHA256 string
	Files  []string
}

func main() {
	outDir := flag.String("output_dir", ".", "output directory for the catalog")
	withYAML := flag.Bool("yaml", false, "also write tools.yaml")
	flag.Parse()

	res, err := Generate(Options{OutputDir: *outDir, YAML: *withYAML, GeneratedAt: time.Now().UTC()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	for _, f := range res.Files {
		fmt.Printf("written %s\n", f)
	}
	fmt.Printf("catalog sha256: %s\n", res.SHA256)
}

// Generate writes tools.json, its checksum and optionally tools.yaml.
func Generate(opts Options) (*Result, error) {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, err
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}

	catalog := Catalog{
		Server:          protocol.ServerInfo{Name: version.ServerName, Version: version.Get().Version},
		ProtocolVersion: protocol.MCPVersion,
		GeneratedAt:     opts.GeneratedAt.UTC(),
		Tools:           app.NewToolbox(config.Default().Server).Describe(),
	}

	raw, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return nil, err
	}
	raw = append(raw, '\n')
	sum := sha256.Sum256(raw)
	sumHex := hex.EncodeToString(sum[:])

	jsonPath := filepath.Join(opts.OutputDir, "tools.json")
	if err := os.WriteFile(jsonPath, raw, 0o644); err != nil {
		return nil, err
	}
	sumPath := jsonPath + ".sha256"
	if err := os.WriteFile(sumPath, []byte(sumHex+"  tools.json\n"), 0o644); err != nil {
		return nil, err
	}
	res := &Result{Raw: raw, SHA256: sumHex, Files: []string{jsonPath, sumPath}}

	if opts.YAML {
		out, err := toYAML(raw)
		if err != nil {
			return nil, fmt.Errorf("convert to yaml: %w", err)
		}
		yamlPath := filepath.Join(opts.OutputDir, "tools.yaml")
		if err := os.WriteFile(yamlPath, out, 0o644); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, yamlPath)
	}
	return res, nil
}

// toYAML re-renders JSON as block-style YAML, keeping key order.
func toYAML(raw []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	blockStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
