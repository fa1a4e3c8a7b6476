// Package factory builds sample data from a default template plus partial
// overrides. It backs the fixtures used by tests and by the fixture command.
//
// Building is two independent passes: Merge applies overrides onto the
// template, then Suffix (only when an index is given) makes the declared
// iterable fields unique across a batch.
package factory

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hupe1980/loop/internal/maputil"
)

// emailPattern matches a "localpart@domain" address.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Factory produces instances of one template. A Factory holds no mutable
// state and is safe for concurrent use.
type Factory struct {
	template  map[string]any
	iterables []string
}

// New creates a factory for template. The template is deep-copied, so later
// changes to the caller's map do not affect built instances. iterable names
// the top-level fields that BuildAt and BuildList make unique.
func New(template map[string]any, iterable ...string) *Factory {
	if template == nil {
		template = map[string]any{}
	}

	return &Factory{
		template:  maputil.DeepCopyMap(template),
		iterables: append([]string(nil), iterable...),
	}
}

// Template returns a deep copy of the factory's template.
func (f *Factory) Template() map[string]any {
	return maputil.DeepCopyMap(f.template)
}

// Iterables returns the fields eligible for index suffixing.
func (f *Factory) Iterables() []string {
	return append([]string(nil), f.iterables...)
}

// Build merges overrides onto the template. Override keys unknown to the
// template are ignored. Nested mappings the overrides do not touch are
// shared with the template and must not be mutated by the caller.
func (f *Factory) Build(overrides map[string]any) map[string]any {
	return Merge(f.template, overrides)
}

// BuildAt merges overrides onto the template and then suffixes every
// iterable string field with index.
func (f *Factory) BuildAt(overrides map[string]any, index int) map[string]any {
	return Suffix(f.Build(overrides), f.iterables, index)
}

// BuildList returns count instances built with indexes 1..count.
func (f *Factory) BuildList(count int, overrides map[string]any) []map[string]any {
	if count <= 0 {
		return []map[string]any{}
	}

	out := make([]map[string]any, count)
	for i := range out {
		out[i] = f.BuildAt(overrides, i+1)
	}

	return out
}

// Merge returns a shallow copy of target with source applied on top of it.
//
// Only keys already present in target are considered. When both sides hold
// a mapping the merge recurses; any other value in source (scalar, sequence,
// nil) replaces the target value wholesale.
func Merge(target, source map[string]any) map[string]any {
	out := make(map[string]any, len(target))
	for k, v := range target {
		out[k] = v
	}

	for k, sv := range source {
		tv, ok := target[k]
		if !ok {
			continue
		}

		if maputil.IsObject(tv) && maputil.IsObject(sv) {
			out[k] = Merge(tv.(map[string]any), sv.(map[string]any))
			continue
		}

		out[k] = sv
	}

	return out
}

// Suffix returns a shallow copy of m in which every listed top-level key
// holding a string is made unique with index. Email addresses receive the
// index before the "@"; any other string has it appended.
func Suffix(m map[string]any, keys []string, index int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	n := strconv.Itoa(index)

	for _, key := range keys {
		s, ok := out[key].(string)
		if !ok {
			continue
		}

		if emailPattern.MatchString(s) {
			out[key] = strings.Replace(s, "@", n+"@", 1)
		} else {
			out[key] = s + n
		}
	}

	return out
}
