// Package casing rewrites the keys of JSON-like trees between camelCase
// (the view model) and snake_case (the API wire format).
//
// A tree is a map[string]any, a []any (or []map[string]any), or any other
// value, which is treated as an opaque primitive. Only mapping keys are
// rewritten; values are never inspected. Conversion allocates a new tree and
// leaves the input untouched.
//
// Cyclic trees are not supported: conversion recurses without bound.
package casing

import (
	"regexp"
	"strings"

	"github.com/hupe1980/loop/internal/maputil"
)

var (
	// upperLetter matches every ASCII uppercase letter.
	upperLetter = regexp.MustCompile(`[A-Z]`)

	// underscoreLower matches an underscore followed by a lowercase letter.
	underscoreLower = regexp.MustCompile(`_[a-z]`)
)

// SnakeKey converts a single key to snake_case by replacing every uppercase
// letter with an underscore and its lowercase form ("userId" -> "user_id").
// Acronyms are not special-cased: "HTTPStatus" becomes "_h_t_t_p_status".
func SnakeKey(key string) string {
	return upperLetter.ReplaceAllStringFunc(key, func(letter string) string {
		return "_" + strings.ToLower(letter)
	})
}

// CamelKey converts a single key to camelCase by removing every underscore
// that precedes a lowercase letter and uppercasing that letter
// ("user_id" -> "userId").
func CamelKey(key string) string {
	return underscoreLower.ReplaceAllStringFunc(key, func(match string) string {
		return strings.ToUpper(match[1:])
	})
}

// ToSnakeCase returns a copy of v with every mapping key, at any depth,
// converted by SnakeKey.
func ToSnakeCase(v any) any {
	return convert(v, SnakeKey)
}

// ToCamelCase returns a copy of v with every mapping key, at any depth,
// converted by CamelKey.
func ToCamelCase(v any) any {
	return convert(v, CamelKey)
}

// ToSnakeCaseMap is ToSnakeCase for a mapping root.
func ToSnakeCaseMap(m map[string]any) map[string]any {
	return convertMap(m, SnakeKey)
}

// ToCamelCaseMap is ToCamelCase for a mapping root.
func ToCamelCaseMap(m map[string]any) map[string]any {
	return convertMap(m, CamelKey)
}

func convert(v any, rename func(string) string) any {
	switch val := v.(type) {
	case map[string]any:
		return convertMap(val, rename)
	case []any:
		if val == nil {
			return val
		}

		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = convert(elem, rename)
		}

		return out
	case []map[string]any:
		if val == nil {
			return val
		}

		out := make([]map[string]any, len(val))
		for i, elem := range val {
			out[i] = convertMap(elem, rename)
		}

		return out
	default:
		return v
	}
}

// convertMap walks keys in sorted order so that, when two keys collapse onto
// the same converted key, the lexically last one wins on every run.
func convertMap(m map[string]any, rename func(string) string) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))
	for _, key := range maputil.SortedKeys(m) {
		out[rename(key)] = convert(m[key], rename)
	}

	return out
}
