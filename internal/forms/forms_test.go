package forms

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/loop/internal/api"
)

func png(size int64) *api.Upload {
	return &api.Upload{Filename: "a.png", ContentType: "image/png", Size: size}
}

func TestValidatePost(t *testing.T) {
	tests := []struct {
		name string
		in   PostInput
		want map[string][]string
	}{
		{
			name: "valid",
			in:   PostInput{Content: "hello", Topics: []string{"topic1"}},
		},
		{
			name: "valid with image",
			in:   PostInput{Content: "hello", Topics: []string{"topic1", "topic2", "topic3"}, Image: png(MaxImageSize)},
		},
		{
			name: "empty content and no topics",
			in:   PostInput{},
			want: map[string][]string{
				"content": {MsgContentRequired},
				"topics":  {MsgTopicsRequired},
			},
		},
		{
			name: "content too long",
			in:   PostInput{Content: strings.Repeat("a", MaxContentLength+1), Topics: []string{"t"}},
			want: map[string][]string{"content": {MsgContentTooLong}},
		},
		{
			name: "too many topics",
			in:   PostInput{Content: "x", Topics: []string{"a", "b", "c", "d"}},
			want: map[string][]string{"topics": {MsgTooManyTopics}},
		},
		{
			name: "image too large and wrong type",
			in: PostInput{Content: "x", Topics: []string{"a"}, Image: &api.Upload{
				Filename: "a.gif", ContentType: "image/gif", Size: MaxImageSize + 1,
			}},
			want: map[string][]string{"image": {MsgImageTooLarge, MsgImageType}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePost(tt.in)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}

			var fe *Errors
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.want, fe.Fields)
		})
	}
}

func TestValidatePost_ContentLengthCountsCharacters(t *testing.T) {
	// 500 two-byte runes are within the limit.
	in := PostInput{Content: strings.Repeat("é", MaxContentLength), Topics: []string{"t"}}
	assert.NoError(t, ValidatePost(in))

	// Decomposed e + combining acute composes to one character.
	decomposed := strings.Repeat("e\u0301", MaxContentLength)
	in.Content = decomposed
	assert.NoError(t, ValidatePost(in))
}

func TestValidateComment(t *testing.T) {
	assert.NoError(t, ValidateComment(CommentInput{Content: "nice"}))

	err := ValidateComment(CommentInput{Image: &api.Upload{ContentType: "application/pdf", Data: []byte("%PDF")}})

	var fe *Errors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, MsgContentRequired, fe.Get("content"))
	assert.Equal(t, MsgImageType, fe.Get("image"))
	assert.False(t, fe.Has("topics"))
}

func TestImageSizeFallsBackToData(t *testing.T) {
	img := &api.Upload{ContentType: "image/webp", Data: make([]byte, MaxImageSize+1)}

	err := ValidateComment(CommentInput{Content: "x", Image: img})

	var fe *Errors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{MsgImageTooLarge}, fe.Fields["image"])
}

func TestAcceptedImageType(t *testing.T) {
	tests := map[string]bool{
		"image/jpeg":               true,
		"image/jpg":                true,
		"IMAGE/PNG":                true,
		"image/webp; charset=utf8": true,
		"image/gif":                false,
		"":                         false,
	}

	for ct, want := range tests {
		t.Run(ct, func(t *testing.T) {
			assert.Equal(t, want, AcceptedImageType(ct))
		})
	}
}

func TestValidateLogin(t *testing.T) {
	assert.NoError(t, ValidateLogin(api.Credentials{Username: "bob", Password: "12345678"}))

	err := ValidateLogin(api.Credentials{Username: "bo", Password: "1234567"})

	var fe *Errors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, MsgUsername, fe.Get("username"))
	assert.Equal(t, MsgPassword, fe.Get("password"))
	assert.Equal(t, "invalid input: password: Invalid password.; username: Invalid username.", err.Error())
}

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"alice@example.com", true},
		{"a.b+tag@sub.example.org", true},
		{"alice", false},
		{"alice@localhost", false},
		{"Alice <alice@example.com>", false},
		{"alice@example.", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateSignup(api.Registration{Username: "alice", Password: "password1", Email: tt.email})
			if tt.valid {
				assert.NoError(t, err)
				return
			}

			var fe *Errors
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, []string{MsgEmail}, fe.Fields["email"])
		})
	}
}
