package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/loop/internal/api"
	"github.com/hupe1980/loop/internal/feed"
	"github.com/hupe1980/loop/internal/forms"
	"github.com/hupe1980/loop/internal/output"
)

func newPostsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and manage feed posts",
		Long: `Read the feed and act on posts.

Votes toggle: upvoting an upvoted post withdraws the vote, and switching
direction moves the count by two. Write commands need a session created
with "loop login".`,
	}

	cmd.AddCommand(
		newPostsListCommand(),
		newPostsCreateCommand(),
		newPostsDeleteCommand(),
		newPostActionCommand("upvote", "Toggle your upvote on a post", (*feed.Service).ToggleUpvote),
		newPostActionCommand("downvote", "Toggle your downvote on a post", (*feed.Service).ToggleDownvote),
		newSaveCommand("save", "Save a post for later", true),
		newSaveCommand("unsave", "Remove a post from your saved posts", false),
	)

	return cmd
}

func newPostsListCommand() *cobra.Command {
	var (
		format   string
		comments bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the feed",
		Long: `List the feed, newest post first.

--comments also fetches the comments of every post, a few posts at a time.`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			threads, err := a.feed().Load(cmd.Context(), comments)
			if err != nil {
				return err
			}

			var v any = threads
			if !comments {
				posts := make([]api.Post, len(threads))
				for i, th := range threads {
					posts[i] = th.Post
				}

				v = posts
			}

			return printer{
				format: format,
				w:      cmd.OutOrStdout(),
				text: func(tr *output.TextRenderer, w io.Writer) error {
					return tr.Threads(w, threads)
				},
			}.print(a, v)
		},
	}

	addFormatFlag(cmd, &format)
	cmd.Flags().BoolVar(&comments, "comments", false, "include the comments of each post")

	return cmd
}

func newPostsCreateCommand() *cobra.Command {
	var (
		format string
		topics []string
		image  string
	)

	cmd := &cobra.Command{
		Use:   "create <content>",
		Short: "Publish a post",
		Long: `Publish a post as the signed-in user.

The post needs between one and three topics (see "loop topics") and at
most 500 characters. An optional image must be a JPEG, PNG or WebP file
of at most 5MB.`,
		Example: `  loop posts create "Hello, Loop!" --topic topic1
  loop posts create "Sunset" --topic topic1 --topic topic2 --image sunset.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			upload, err := readUpload(image)
			if err != nil {
				return usageError(err)
			}

			in := forms.PostInput{Content: args[0], Topics: topics, Image: upload}
			if err := forms.ValidatePost(in); err != nil {
				return usageError(err)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			user, err := a.user()
			if err != nil {
				return err
			}

			post, err := a.client.CreatePost(cmd.Context(), api.NewPost{
				UserID:  user.ID,
				Content: in.Content,
				Topics:  in.Topics,
				Image:   in.Image,
			})
			if err != nil {
				return err
			}

			a.logger.Info("post created", "id", post.ID)

			return printPost(cmd, a, format, post)
		},
	}

	addFormatFlag(cmd, &format)

	f := cmd.Flags()
	f.StringArrayVarP(&topics, "topic", "t", nil, "topic ID (repeatable, 1 to 3)")
	f.StringVar(&image, "image", "", "image file to attach")

	return cmd
}

func newPostsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <post-id>",
		Short:   "Delete one of your posts",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			if err := a.client.DeletePost(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %s.\n", args[0])

			return err
		},
	}
}

type postAction func(s *feed.Service, ctx context.Context, p *api.Post) error

func newPostActionCommand(use, short string, action postAction) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   use + " <post-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			post, err := a.findPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := action(a.feed(), cmd.Context(), post); err != nil {
				return err
			}

			return printPost(cmd, a, format, post)
		},
	}

	addFormatFlag(cmd, &format)

	return cmd
}

// newSaveCommand saves or unsaves a post. A post already in the wanted
// state is left alone.
func newSaveCommand(use, short string, save bool) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   use + " <post-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			post, err := a.findPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if post.Actions.IsSaved != save {
				if err := a.feed().ToggleSave(cmd.Context(), post); err != nil {
					return err
				}
			}

			return printPost(cmd, a, format, post)
		},
	}

	addFormatFlag(cmd, &format)

	return cmd
}

func printPost(cmd *cobra.Command, a *app, format string, post *api.Post) error {
	return printer{
		format: format,
		w:      cmd.OutOrStdout(),
		text: func(tr *output.TextRenderer, w io.Writer) error {
			_, err := fmt.Fprintln(w, tr.Post(*post))
			return err
		},
	}.print(a, post)
}
