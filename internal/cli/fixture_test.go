package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, s string) any {
	t.Helper()

	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))

	return v
}

func TestFixture_Defaults(t *testing.T) {
	stdout, _, err := executeCommand("fixture", "topic")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "topic", "name": "Topic "}, decodeJSON(t, stdout))
}

func TestFixture_Index(t *testing.T) {
	stdout, _, err := executeCommand("fixture", "user", "--index", "2", "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "email: user2@example.com\nid: user2\nusername: User2\n", stdout)
}

func TestFixture_Count(t *testing.T) {
	stdout, _, err := executeCommand("fixture", "topic", "--count", "3")
	require.NoError(t, err)

	assert.Equal(t, []any{
		map[string]any{"id": "topic1", "name": "Topic 1"},
		map[string]any{"id": "topic2", "name": "Topic 2"},
		map[string]any{"id": "topic3", "name": "Topic 3"},
	}, decodeJSON(t, stdout))
}

func TestFixture_Overrides(t *testing.T) {
	file := writeFile(t, "overrides.yaml", "content: From file\nuser:\n  username: Alice\n  email: alice@example.com\n")

	stdout, _, err := executeCommand("fixture", "post",
		"--overrides-file", file,
		"--overrides", `{"content": "From JSON", "topics": []}`,
		"--set", "actions.votes=3",
		"--set", "user.username=Bob",
		"--set", "image=",
	)
	require.NoError(t, err)

	post := decodeJSON(t, stdout).(map[string]any)
	assert.Equal(t, "From JSON", post["content"])
	assert.Equal(t, []any{}, post["topics"])
	assert.Equal(t, "", post["image"])
	assert.Equal(t, map[string]any{"id": "user", "username": "Bob", "email": "alice@example.com"}, post["user"])

	actions := post["actions"].(map[string]any)
	assert.Equal(t, float64(3), actions["votes"])
	assert.Equal(t, false, actions["isUpvoted"])
}

func TestFixture_UnknownOverrideKeysAreIgnored(t *testing.T) {
	stdout, stderr, err := executeCommand("fixture", "topic", "--set", "color=red", "--set", "name=Go")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "topic", "name": "Go"}, decodeJSON(t, stdout))
	assert.Contains(t, stderr, "override ignored")
	assert.Contains(t, stderr, "key=color")
}

func TestFixture_Wire(t *testing.T) {
	stdout, _, err := executeCommand("fixture", "comment", "--index", "1", "--wire")
	require.NoError(t, err)

	comment := decodeJSON(t, stdout).(map[string]any)
	assert.Equal(t, "post1", comment["post_id"])
	assert.Equal(t, "comment1", comment["id"])
	assert.Contains(t, comment, "created_at")
	assert.NotContains(t, comment, "postId")
}

func TestFixture_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown kind", args: []string{"fixture", "video"}, want: "unknown fixture"},
		{name: "bad set", args: []string{"fixture", "post", "--set", "novalue"}, want: "expected path=value"},
		{name: "empty segment", args: []string{"fixture", "post", "--set", "user..id=1"}, want: "empty path segment"},
		{name: "bad overrides", args: []string{"fixture", "post", "--overrides", "[1]"}, want: "JSON object"},
		{name: "missing file", args: []string{"fixture", "post", "--overrides-file", "/nonexistent.yaml"}, want: "reading overrides file"},
		{name: "negative count", args: []string{"fixture", "post", "--count", "-1"}, want: "must not be negative"},
		{name: "bad format", args: []string{"fixture", "post", "-o", "text"}, want: "unsupported output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(tt.args...)
			requireExitCode(t, err, 2)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFixture_CountAndIndexExclusive(t *testing.T) {
	_, _, err := executeCommand("fixture", "post", "--count", "2", "--index", "1")
	require.Error(t, err)
}

func TestParseSet(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]any
	}{
		{"content=Hello", map[string]any{"content": "Hello"}},
		{"actions.votes=3", map[string]any{"actions": map[string]any{"votes": 3}}},
		{"actions.isSaved=true", map[string]any{"actions": map[string]any{"isSaved": true}}},
		{`content="3"`, map[string]any{"content": "3"}},
		{"image=null", map[string]any{"image": nil}},
		{"topics=[]", map[string]any{"topics": []any{}}},
		{"content=a=b", map[string]any{"content": "a=b"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSet(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeepUnion(t *testing.T) {
	dst := map[string]any{"user": map[string]any{"username": "A", "email": "a@x.io"}, "content": "x"}
	src := map[string]any{"user": map[string]any{"username": "B"}, "image": nil}

	got := deepUnion(dst, src)

	assert.Equal(t, map[string]any{
		"user":    map[string]any{"username": "B", "email": "a@x.io"},
		"content": "x",
		"image":   nil,
	}, got)
	assert.Equal(t, "A", dst["user"].(map[string]any)["username"])
}
