package feed

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/loop/internal/api"
)

// DefaultConcurrency bounds parallel comment fetches in Load.
const DefaultConcurrency = 4

// Client is the subset of *api.Client the feed needs.
type Client interface {
	Posts(ctx context.Context) ([]api.Post, error)
	Comments(ctx context.Context, postID string) ([]api.Comment, error)
	UpvotePost(ctx context.Context, id string) error
	DownvotePost(ctx context.Context, id string) error
	SavePost(ctx context.Context, id string) error
	UnsavePost(ctx context.Context, id string) error
	CreateComment(ctx context.Context, in api.NewComment) (*api.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
}

// Thread is a post with its comments.
type Thread struct {
	Post     api.Post      `json:"post"`
	Comments []api.Comment `json:"comments,omitempty"`
}

// Service applies post actions against the API.
type Service struct {
	client      Client
	logger      *slog.Logger
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithConcurrency bounds parallel requests in Load.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a Service backed by client.
func NewService(client Client, opts ...Option) *Service {
	s := &Service{client: client, logger: slog.Default(), concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load fetches the feed. With comments set, each post's comments are
// fetched in parallel and attached to its thread.
func (s *Service) Load(ctx context.Context, comments bool) ([]Thread, error) {
	posts, err := s.client.Posts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading posts: %w", err)
	}

	threads := make([]Thread, len(posts))
	for i, p := range posts {
		threads[i].Post = p
	}

	if !comments {
		return threads, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range threads {
		g.Go(func() error {
			list, err := s.client.Comments(gctx, threads[i].Post.ID)
			if err != nil {
				return fmt.Errorf("loading comments of %s: %w", threads[i].Post.ID, err)
			}

			threads[i].Comments = list

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return threads, nil
}

// ToggleUpvote upvotes or withdraws the upvote of p.
func (s *Service) ToggleUpvote(ctx context.Context, p *api.Post) error {
	return s.apply(ctx, p, "upvote", s.client.UpvotePost, Upvote)
}

// ToggleDownvote downvotes or withdraws the downvote of p.
func (s *Service) ToggleDownvote(ctx context.Context, p *api.Post) error {
	return s.apply(ctx, p, "downvote", s.client.DownvotePost, Downvote)
}

// ToggleSave saves p, or unsaves it when already saved.
func (s *Service) ToggleSave(ctx context.Context, p *api.Post) error {
	if p.Actions.IsSaved {
		return s.apply(ctx, p, "unsave", s.client.UnsavePost, Unsave)
	}

	return s.apply(ctx, p, "save", s.client.SavePost, Save)
}

// AddComment publishes a comment on p and bumps its counter.
func (s *Service) AddComment(ctx context.Context, p *api.Post, content string, image *api.Upload) (*api.Comment, error) {
	c, err := s.client.CreateComment(ctx, api.NewComment{PostID: p.ID, Content: content, Image: image})
	if err != nil {
		return nil, fmt.Errorf("comment on %s: %w", p.ID, err)
	}

	p.Actions = CommentAdded(p.Actions)

	return c, nil
}

// RemoveComment deletes commentID from p and decrements its counter.
func (s *Service) RemoveComment(ctx context.Context, p *api.Post, commentID string) error {
	if err := s.client.DeleteComment(ctx, p.ID, commentID); err != nil {
		return fmt.Errorf("delete comment %s: %w", commentID, err)
	}

	p.Actions = CommentRemoved(p.Actions)

	return nil
}

func (s *Service) apply(
	ctx context.Context,
	p *api.Post,
	action string,
	call func(context.Context, string) error,
	transition func(api.PostActions) api.PostActions,
) error {
	if err := call(ctx, p.ID); err != nil {
		s.logger.DebugContext(ctx, "post action failed",
			slog.String("action", action),
			slog.String("post", p.ID),
			slog.String("error", err.Error()),
		)

		return fmt.Errorf("%s %s: %w", action, p.ID, err)
	}

	p.Actions = transition(p.Actions)

	return nil
}
