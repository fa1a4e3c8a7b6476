package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-viper/mapstructure/v2"

	"github.com/hupe1980/loop/internal/casing"
)

// Decode copies a camelCase tree (as produced by casing.ToCamelCase) into
// out, matching keys against json struct tags.
func Decode(tree any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	if err := dec.Decode(tree); err != nil {
		return fmt.Errorf("decoding %T: %w", out, err)
	}

	return nil
}

// Tree flattens a model into a camelCase map keyed by its json tags.
func Tree(v any) (map[string]any, error) {
	out := map[string]any{}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}

	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}

	return out, nil
}

// encodeBody renders v as a snake_case JSON request body.
func encodeBody(v any) (io.Reader, error) {
	tree, err := Tree(v)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(casing.ToSnakeCaseMap(tree))
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	return bytes.NewReader(data), nil
}

// decodeBody parses a snake_case JSON response body into out.
func decodeBody(data []byte, out any) error {
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parsing response body: %w", err)
	}

	return Decode(casing.ToCamelCase(tree), out)
}
