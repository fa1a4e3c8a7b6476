package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/loop/internal/api"
	"github.com/hupe1980/loop/internal/forms"
	"github.com/hupe1980/loop/internal/output"
)

func newCommentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and manage the comments of a post",
	}

	cmd.AddCommand(
		newCommentsListCommand(),
		newCommentsCreateCommand(),
		newCommentsDeleteCommand(),
	)

	return cmd
}

func newCommentsListCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "list <post-id>",
		Short:   "List the comments of a post",
		Aliases: []string{"ls"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			comments, err := a.client.Comments(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printer{
				format: format,
				w:      cmd.OutOrStdout(),
				text: func(tr *output.TextRenderer, w io.Writer) error {
					return tr.Comments(w, comments)
				},
			}.print(a, comments)
		},
	}

	addFormatFlag(cmd, &format)

	return cmd
}

func newCommentsCreateCommand() *cobra.Command {
	var (
		format string
		image  string
	)

	cmd := &cobra.Command{
		Use:     "create <post-id> <content>",
		Short:   "Comment on a post",
		Example: `  loop comments create post1 "Nice one!"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			upload, err := readUpload(image)
			if err != nil {
				return usageError(err)
			}

			in := forms.CommentInput{Content: args[1], Image: upload}
			if err := forms.ValidateComment(in); err != nil {
				return usageError(err)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			if _, err := a.user(); err != nil {
				return err
			}

			post, err := a.findPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			comment, err := a.feed().AddComment(cmd.Context(), post, in.Content, in.Image)
			if err != nil {
				return err
			}

			return printComment(cmd, a, format, comment)
		},
	}

	addFormatFlag(cmd, &format)
	cmd.Flags().StringVar(&image, "image", "", "image file to attach")

	return cmd
}

func newCommentsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <post-id> <comment-id>",
		Short:   "Delete one of your comments",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			post, err := a.findPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := a.feed().RemoveComment(cmd.Context(), post, args[1]); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment %s from post %s.\n", args[1], post.ID)

			return err
		},
	}
}

func printComment(cmd *cobra.Command, a *app, format string, c *api.Comment) error {
	return printer{
		format: format,
		w:      cmd.OutOrStdout(),
		text: func(tr *output.TextRenderer, w io.Writer) error {
			_, err := fmt.Fprintln(w, tr.Comment(*c))
			return err
		},
	}.print(a, c)
}

func newTopicsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List the topics posts can be filed under",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			topics, err := a.client.Topics(cmd.Context())
			if err != nil {
				return err
			}

			return printer{
				format: format,
				w:      cmd.OutOrStdout(),
				text: func(tr *output.TextRenderer, w io.Writer) error {
					return tr.Topics(w, topics)
				},
			}.print(a, topics)
		},
	}

	addFormatFlag(cmd, &format)

	return cmd
}
