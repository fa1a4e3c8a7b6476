// Package yamlutil splits and decodes YAML input into JSON-like trees.
package yamlutil

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"
)

// docSeparator matches YAML document separators: a line containing only "---"
// optionally followed by whitespace.
var docSeparator = regexp.MustCompile(`(?m)^---\s*$`)

// SplitDocuments splits a multi-document YAML byte slice into individual
// documents, filtering out empty ones. Each returned slice is a raw YAML
// document without the leading "---" separator.
func SplitDocuments(data []byte) [][]byte {
	parts := docSeparator.Split(string(data), -1)

	var docs [][]byte

	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			docs = append(docs, []byte(part))
		}
	}

	return docs
}

// DecodeDocuments decodes every document in data. Mappings come back as
// map[string]any, sequences as []any and numbers as float64, the same shapes
// encoding/json produces. JSON input is valid YAML and decodes the same way.
func DecodeDocuments(data []byte) ([]any, error) {
	docs := SplitDocuments(data)
	out := make([]any, 0, len(docs))

	for i, doc := range docs {
		var v any
		if err := sigsyaml.Unmarshal(doc, &v); err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}

		// A document holding only comments decodes to nil.
		if v == nil && isCommentOnly(doc) {
			continue
		}

		out = append(out, v)
	}

	return out, nil
}

func isCommentOnly(doc []byte) bool {
	for _, line := range bytes.Split(doc, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) > 0 && line[0] != '#' {
			return false
		}
	}

	return true
}

// DecodeMapping decodes a single YAML mapping, such as a file of fixture
// overrides. Nested mappings come back as map[string]any.
func DecodeMapping(data []byte) (map[string]any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if node.Kind == 0 {
		return map[string]any{}, nil
	}

	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("expected a YAML mapping at the top level")
	}

	out := map[string]any{}
	if err := node.Content[0].Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding mapping: %w", err)
	}

	return out, nil
}
