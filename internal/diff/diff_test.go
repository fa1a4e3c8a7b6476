package diff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		wantDiff bool
		contains []string
	}{
		{name: "identical", old: "userId: 1\n", new: "userId: 1\n"},
		{
			name:     "renamed key",
			old:      "createdAt: now\nid: 1\n",
			new:      "created_at: now\nid: 1\n",
			wantDiff: true,
			contains: []string{"-createdAt: now", "+created_at: now", "--- input", "+++ output"},
		},
		{name: "empty old", old: "", new: "a: 1\n", wantDiff: true},
		{name: "empty new", old: "a: 1\n", new: "", wantDiff: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(tt.old, tt.new, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiff, res.HasDifferences)

			if !tt.wantDiff {
				assert.Empty(t, res.Hunks)
				return
			}

			assert.NotEmpty(t, res.Hunks)

			for _, s := range tt.contains {
				assert.Contains(t, res.Unified, s)
			}
		})
	}
}

func TestCompute_Labels(t *testing.T) {
	res, err := Compute("a\n", "b\n", Options{OldLabel: "camel.json", NewLabel: "snake.json", Context: 1})
	require.NoError(t, err)
	assert.Contains(t, res.Unified, "--- camel.json")
	assert.Contains(t, res.Unified, "+++ snake.json")
	assert.Equal(t, "camel.json", res.OldLabel)
}

func TestCompute_MultipleHunks(t *testing.T) {
	old := "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\n"
	new := "A\nb\nc\nd\ne\nf\ng\nh\ni\nJ\n"

	res, err := Compute(old, new, Options{OldLabel: "old", NewLabel: "new", Context: 1})
	require.NoError(t, err)
	assert.Len(t, res.Hunks, 3) // header block plus two hunks
}

func TestWrite(t *testing.T) {
	res, err := Compute("userId: 1\n", "user_id: 1\n", DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, false))

	out := buf.String()
	assert.Contains(t, out, "-userId: 1\n")
	assert.Contains(t, out, "+user_id: 1\n")
	assert.NotContains(t, out, "\x1b[")

	buf.Reset()
	require.NoError(t, Write(&buf, res, true))
	assert.Contains(t, buf.String(), "user_id: 1")
}

func TestWrite_NoDifferences(t *testing.T) {
	res, err := Compute("a\n", "a\n", DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, true))
	assert.Equal(t, "No differences found.\n", buf.String())
}
