// Package fixtures defines sample feed data built with the factory package.
// Templates use the camelCase view-model shape; snake-case them with the
// casing package to obtain wire payloads.
package fixtures

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/loop/internal/api"
	"github.com/hupe1980/loop/internal/factory"
)

// Timestamp is the creation and update time of every fixture.
const Timestamp = "2024-01-01T00:00:00.000Z"

// Topics builds topics: {id: "topic", name: "Topic "}.
var Topics = factory.New(map[string]any{
	"id":   "topic",
	"name": "Topic ",
}, "id", "name")

// Users builds accounts: {id: "user", username: "User", email: "user@example.com"}.
var Users = factory.New(map[string]any{
	"id":       "user",
	"username": "User",
	"email":    "user@example.com",
}, "id", "username", "email")

// Posts builds feed posts authored by the default user with two topics.
var Posts = factory.New(map[string]any{
	"id":        "post",
	"user":      Users.Build(nil),
	"content":   "This is a test post",
	"image":     nil,
	"topics":    sequence(Topics.BuildList(2, nil)),
	"createdAt": Timestamp,
	"updatedAt": Timestamp,
	"actions": map[string]any{
		"votes":       0,
		"comments":    0,
		"isUpvoted":   false,
		"isDownvoted": false,
		"isSaved":     false,
	},
}, "id", "content")

// Comments builds comments on post1 by the default user.
var Comments = factory.New(map[string]any{
	"id":        "comment",
	"postId":    "post1",
	"user":      Users.Build(nil),
	"content":   "This is a test comment ",
	"image":     nil,
	"createdAt": Timestamp,
	"updatedAt": Timestamp,
}, "id", "content")

var byName = map[string]*factory.Factory{
	"topic":   Topics,
	"user":    Users,
	"post":    Posts,
	"comment": Comments,
}

// Names lists the known fixture kinds.
func Names() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ByName returns the factory for kind ("topic", "user", "post", "comment").
func ByName(kind string) (*factory.Factory, error) {
	f, ok := byName[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("unknown fixture %q: must be one of %s", kind, strings.Join(Names(), ", "))
	}

	return f, nil
}

// Post builds the index-th post (index 0 skips suffixing) as a model.
func Post(overrides map[string]any, index int) api.Post {
	var p api.Post
	mustDecode(build(Posts, overrides, index), &p)

	return p
}

// PostList builds count posts as models.
func PostList(count int, overrides map[string]any) []api.Post {
	out := make([]api.Post, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, Post(overrides, i))
	}

	return out
}

// Comment builds the index-th comment (index 0 skips suffixing) as a model.
func Comment(overrides map[string]any, index int) api.Comment {
	var c api.Comment
	mustDecode(build(Comments, overrides, index), &c)

	return c
}

// User builds the index-th user (index 0 skips suffixing) as a model.
func User(overrides map[string]any, index int) api.User {
	var u api.User
	mustDecode(build(Users, overrides, index), &u)

	return u
}

// Topic builds the index-th topic (index 0 skips suffixing) as a model.
func Topic(overrides map[string]any, index int) api.Topic {
	var t api.Topic
	mustDecode(build(Topics, overrides, index), &t)

	return t
}

func build(f *factory.Factory, overrides map[string]any, index int) map[string]any {
	if index > 0 {
		return f.BuildAt(overrides, index)
	}

	return f.Build(overrides)
}

// mustDecode panics on decode failure; fixture templates are static and a
// failure means the templates and the models have drifted apart.
func mustDecode(tree map[string]any, out any) {
	if err := api.Decode(tree, out); err != nil {
		panic(fmt.Sprintf("fixtures: %v", err))
	}
}

func sequence(items []map[string]any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}

	return out
}
