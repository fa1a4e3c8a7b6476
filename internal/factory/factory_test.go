package factory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postTemplate() map[string]any {
	return map[string]any{
		"id":      "post",
		"content": "This is a test post",
		"image":   nil,
		"topics": []any{
			map[string]any{"id": "t1"},
			map[string]any{"id": "t2"},
		},
		"actions": map[string]any{
			"votes":   0,
			"isSaved": false,
		},
	}
}

// ---------------------------------------------------------------------------
// Build
// ---------------------------------------------------------------------------

func TestBuild_DefaultEqualsTemplate(t *testing.T) {
	f := New(postTemplate(), "id", "content")

	got := f.Build(nil)
	assert.Equal(t, postTemplate(), got)

	// The top-level map is a fresh allocation.
	got["id"] = "mutated"
	assert.Equal(t, "post", f.Build(nil)["id"])
}

func TestBuild_UnknownOverrideIgnored(t *testing.T) {
	f := New(postTemplate())

	got := f.Build(map[string]any{"unknownField": "x"})
	assert.NotContains(t, got, "unknownField")
	assert.Equal(t, postTemplate(), got)
}

func TestBuild_UnknownNestedOverrideIgnored(t *testing.T) {
	f := New(postTemplate())

	got := f.Build(map[string]any{"actions": map[string]any{"bogus": true}})
	assert.Equal(t, map[string]any{"votes": 0, "isSaved": false}, got["actions"])
}

func TestBuild_DeepMergeNestedObject(t *testing.T) {
	f := New(postTemplate())

	got := f.Build(map[string]any{"actions": map[string]any{"isSaved": true}})
	assert.Equal(t, map[string]any{"votes": 0, "isSaved": true}, got["actions"])
}

func TestBuild_ArrayReplacedNotMerged(t *testing.T) {
	f := New(postTemplate())

	got := f.Build(map[string]any{"topics": []any{map[string]any{"id": "t3"}}})
	assert.Equal(t, []any{map[string]any{"id": "t3"}}, got["topics"])
}

func TestBuild_ScalarReplacesMapping(t *testing.T) {
	f := New(postTemplate())

	got := f.Build(map[string]any{"actions": nil})
	assert.Nil(t, got["actions"])
}

func TestBuild_DoesNotMutateTemplate(t *testing.T) {
	f := New(postTemplate())

	got := f.Build(map[string]any{"actions": map[string]any{"votes": 5}})
	got["actions"].(map[string]any)["isSaved"] = true

	assert.Equal(t, postTemplate(), f.Template())
}

func TestNew_CopiesTemplate(t *testing.T) {
	tmpl := postTemplate()
	f := New(tmpl)

	tmpl["id"] = "changed"
	tmpl["actions"].(map[string]any)["votes"] = 99

	assert.Equal(t, postTemplate(), f.Build(nil))
}

// ---------------------------------------------------------------------------
// BuildAt / BuildList
// ---------------------------------------------------------------------------

func TestBuildAt_PlainStringSuffix(t *testing.T) {
	f := New(map[string]any{"id": "topic", "name": "Topic "}, "id", "name")

	got := f.BuildAt(nil, 3)
	assert.Equal(t, map[string]any{"id": "topic3", "name": "Topic 3"}, got)
}

func TestBuildAt_EmailSuffix(t *testing.T) {
	f := New(map[string]any{"email": "user@example.com"}, "email")

	got := f.BuildAt(nil, 2)
	assert.Equal(t, "user2@example.com", got["email"])
}

func TestBuildAt_NonStringIterableUntouched(t *testing.T) {
	f := New(map[string]any{"id": "x", "votes": 1, "image": nil}, "votes", "image", "missing")

	got := f.BuildAt(nil, 4)
	assert.Equal(t, map[string]any{"id": "x", "votes": 1, "image": nil}, got)
}

func TestBuildAt_SuffixAppliesAfterOverride(t *testing.T) {
	f := New(map[string]any{"id": "topic", "name": "Topic "}, "id")

	got := f.BuildAt(map[string]any{"id": "custom"}, 7)
	assert.Equal(t, "custom7", got["id"])
	assert.Equal(t, "Topic ", got["name"])
}

func TestBuildList_Uniqueness(t *testing.T) {
	f := New(map[string]any{"id": "topic", "name": "Topic "}, "id", "name")

	list := f.BuildList(5, nil)
	require.Len(t, list, 5)

	seen := map[string]bool{}

	for i, item := range list {
		id := item["id"].(string)
		assert.Equal(t, fmt.Sprintf("topic%d", i+1), id)
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestBuildList_AppliesOverrides(t *testing.T) {
	f := New(postTemplate(), "id")

	list := f.BuildList(2, map[string]any{"content": "shared"})
	require.Len(t, list, 2)

	for _, item := range list {
		assert.Equal(t, "shared", item["content"])
	}
}

func TestBuildList_NonPositiveCount(t *testing.T) {
	f := New(postTemplate())
	assert.Empty(t, f.BuildList(0, nil))
	assert.Empty(t, f.BuildList(-3, nil))
}

// ---------------------------------------------------------------------------
// Merge / Suffix
// ---------------------------------------------------------------------------

func TestMerge_NilSource(t *testing.T) {
	target := map[string]any{"a": 1}
	assert.Equal(t, target, Merge(target, nil))
}

func TestMerge_MappingOverScalarReplaces(t *testing.T) {
	got := Merge(map[string]any{"a": "x"}, map[string]any{"a": map[string]any{"b": 1}})
	assert.Equal(t, map[string]any{"a": map[string]any{"b": 1}}, got)
}

func TestSuffix_LeavesInputUntouched(t *testing.T) {
	in := map[string]any{"id": "post"}
	out := Suffix(in, []string{"id"}, 1)

	assert.Equal(t, "post1", out["id"])
	assert.Equal(t, "post", in["id"])
}

func TestSuffix_EmailDetection(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user@example.com", "user9@example.com"},
		{"not-an-email", "not-an-email9"},
		{"@example.com", "@example.com9"},
		{"user@localhost", "user@localhost9"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Suffix(map[string]any{"v": tt.in}, []string{"v"}, 9)
			assert.Equal(t, tt.want, got["v"])
		})
	}
}
