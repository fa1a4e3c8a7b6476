// Package output serializes command results and writes them to their
// destination.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	sigsyaml "sigs.k8s.io/yaml"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// ValidateFormat checks format against allowed.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}

	return fmt.Errorf("unsupported output format %q: must be one of %v", format, allowed)
}

// Serialize renders v as indented JSON or YAML. Map keys come out sorted and
// struct fields follow their json tags in both formats.
func Serialize(v any, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return SerializeJSON(v, "  ")
	case FormatYAML:
		return SerializeYAML(v)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// SerializeJSON renders v as JSON indented with indent (two spaces when
// empty), with a trailing newline. HTML characters are not escaped.
func SerializeJSON(v any, indent string) ([]byte, error) {
	if indent == "" {
		indent = "  "
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("serializing JSON: %w", err)
	}

	return buf.Bytes(), nil
}

// SerializeYAML renders v as YAML via its JSON form.
func SerializeYAML(v any) ([]byte, error) {
	data, err := sigsyaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializing YAML: %w", err)
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	return data, nil
}

// SerializeDocuments renders each value and joins YAML documents with "---"
// separators. JSON output places one document per value back to back.
func SerializeDocuments(docs []any, format string) ([]byte, error) {
	var buf bytes.Buffer

	for i, d := range docs {
		data, err := Serialize(d, format)
		if err != nil {
			return nil, err
		}

		if i > 0 && format == FormatYAML {
			buf.WriteString("---\n")
		}

		buf.Write(data)
	}

	return buf.Bytes(), nil
}
