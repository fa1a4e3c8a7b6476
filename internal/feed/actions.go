// Package feed keeps the viewer's post state in step with the API.
//
// The transition functions are pure; Service applies them to a post only
// after the matching request has succeeded, so a failed call leaves the
// local state untouched.
package feed

import "github.com/hupe1980/loop/internal/api"

// Upvote toggles the upvote. An active downvote is cleared and its vote
// given back.
func Upvote(prev api.PostActions) api.PostActions {
	next := prev
	next.IsUpvoted = !prev.IsUpvoted
	next.IsDownvoted = false

	if next.IsUpvoted {
		next.Votes++
	} else {
		next.Votes--
	}

	if prev.IsDownvoted {
		next.Votes++
	}

	return next
}

// Downvote toggles the downvote. An active upvote is cleared and its vote
// taken back.
func Downvote(prev api.PostActions) api.PostActions {
	next := prev
	next.IsDownvoted = !prev.IsDownvoted
	next.IsUpvoted = false

	if next.IsDownvoted {
		next.Votes--
	} else {
		next.Votes++
	}

	if prev.IsUpvoted {
		next.Votes--
	}

	return next
}

// Save marks the post as bookmarked.
func Save(prev api.PostActions) api.PostActions {
	prev.IsSaved = true
	return prev
}

// Unsave clears the bookmark.
func Unsave(prev api.PostActions) api.PostActions {
	prev.IsSaved = false
	return prev
}

// CommentAdded bumps the comment counter.
func CommentAdded(prev api.PostActions) api.PostActions {
	prev.Comments++
	return prev
}

// CommentRemoved decrements the comment counter.
func CommentRemoved(prev api.PostActions) api.PostActions {
	prev.Comments--
	return prev
}
