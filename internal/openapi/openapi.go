// Package openapi serves the API description and prepares the copy that is
// shown to the assistant's model.
package openapi

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// AssistPrefix is the path prefix of the assistant routes, which are left
// out of the model's copy so that plans never call the assistant itself.
const AssistPrefix = "/assist"

//go:embed openapi.yaml
var source []byte

// Document is the parsed API description. It is built once at startup and
// never mutated.
type Document struct {
	full      []byte
	assistant string
}

// Load parses the embedded description.
func Load() (*Document, error) {
	return Parse(source)
}

// Parse builds a document from YAML or JSON.
func Parse(data []byte) (*Document, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("openapi: failed to decode document: %w", err)
	}
	if _, ok := doc["paths"].(map[string]any); !ok {
		return nil, fmt.Errorf("openapi: document has no paths")
	}

	full, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("openapi: failed to encode document: %w", err)
	}
	assistant, err := json.Marshal(withoutPaths(doc, AssistPrefix))
	if err != nil {
		return nil, fmt.Errorf("openapi: failed to encode assistant document: %w", err)
	}
	return &Document{full: full, assistant: string(assistant)}, nil
}

// JSON is the complete description, served at /openapi.json.
func (d *Document) JSON() []byte {
	return d.full
}

// AssistantSpec is the description without the assistant routes and
// without top-level extensions.
func (d *Document) AssistantSpec() string {
	return d.assistant
}

// withoutPaths returns a shallow copy of doc without the paths under
// prefix. doc itself is not modified.
func withoutPaths(doc map[string]any, prefix string) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if strings.HasPrefix(k, "x-") {
			continue
		}
		out[k] = v
	}

	paths, _ := doc["paths"].(map[string]any)
	kept := make(map[string]any, len(paths))
	for path, item := range paths {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			continue
		}
		kept[path] = item
	}
	out["paths"] = kept
	return out
}
