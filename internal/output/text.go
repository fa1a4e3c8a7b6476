package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/loop/internal/api"
	"github.com/hupe1980/loop/internal/feed"
)

// TextOptions configures human-readable rendering.
type TextOptions struct {
	// NoColor disables styling.
	NoColor bool
	// Now anchors relative timestamps. Zero means time.Now().
	Now time.Time
	// Width wraps post bodies. Zero disables wrapping.
	Width int
}

// TextRenderer renders feed entities for terminals.
type TextRenderer struct {
	opts TextOptions

	author  lipgloss.Style
	muted   lipgloss.Style
	topic   lipgloss.Style
	body    lipgloss.Style
	active  lipgloss.Style
	comment lipgloss.Style
}

// NewTextRenderer returns a renderer writing styles suited to w.
func NewTextRenderer(w io.Writer, opts TextOptions) *TextRenderer {
	r := lipgloss.NewRenderer(w)

	tr := &TextRenderer{
		opts:    opts,
		author:  r.NewStyle(),
		muted:   r.NewStyle(),
		topic:   r.NewStyle(),
		body:    r.NewStyle(),
		active:  r.NewStyle(),
		comment: r.NewStyle().PaddingLeft(2),
	}

	if !opts.NoColor {
		tr.author = tr.author.Bold(true)
		tr.muted = tr.muted.Foreground(lipgloss.Color("8"))
		tr.topic = tr.topic.Foreground(lipgloss.Color("6"))
		tr.active = tr.active.Foreground(lipgloss.Color("2")).Bold(true)
	}

	if opts.Width > 0 {
		tr.body = tr.body.Width(opts.Width)
	}

	return tr
}

func (tr *TextRenderer) now() time.Time {
	if tr.opts.Now.IsZero() {
		return time.Now()
	}

	return tr.opts.Now
}

// Post renders a single post card.
func (tr *TextRenderer) Post(p api.Post) string {
	var b strings.Builder

	header := []string{
		tr.author.Render(p.User.Username),
		tr.muted.Render(feed.RelativeTime(p.CreatedAt, tr.now())),
		tr.muted.Render(p.ID),
	}

	b.WriteString(strings.Join(header, tr.muted.Render(" · ")))
	b.WriteString("\n")

	if len(p.Topics) > 0 {
		tags := make([]string, len(p.Topics))
		for i, t := range p.Topics {
			tags[i] = tr.topic.Render("#" + strings.TrimSpace(t.Name))
		}

		b.WriteString(strings.Join(tags, " "))
		b.WriteString("\n")
	}

	b.WriteString(tr.body.Render(p.Content))
	b.WriteString("\n")

	if p.Image != nil {
		b.WriteString(tr.muted.Render("[image] " + *p.Image))
		b.WriteString("\n")
	}

	b.WriteString(tr.actions(p.Actions))

	return b.String()
}

func (tr *TextRenderer) actions(a api.PostActions) string {
	votes := fmt.Sprintf("%d votes", a.Votes)

	switch {
	case a.IsUpvoted:
		votes = tr.active.Render("▲ " + votes)
	case a.IsDownvoted:
		votes = tr.active.Render("▼ " + votes)
	default:
		votes = tr.muted.Render(votes)
	}

	parts := []string{votes, tr.muted.Render(fmt.Sprintf("%d comments", a.Comments))}
	if a.IsSaved {
		parts = append(parts, tr.active.Render("saved"))
	}

	return strings.Join(parts, tr.muted.Render(" | "))
}

// Comment renders one comment line.
func (tr *TextRenderer) Comment(c api.Comment) string {
	line := fmt.Sprintf("%s %s %s",
		tr.author.Render(c.User.Username),
		tr.muted.Render("("+feed.RelativeTime(c.CreatedAt, tr.now())+", "+c.ID+")"),
		c.Content,
	)

	return tr.comment.Render(line)
}

// Threads writes posts separated by blank lines, each followed by any
// loaded comments.
func (tr *TextRenderer) Threads(w io.Writer, threads []feed.Thread) error {
	if len(threads) == 0 {
		_, err := fmt.Fprintln(w, tr.muted.Render("No posts yet."))
		return err
	}

	for i, th := range threads {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintln(w, tr.Post(th.Post)); err != nil {
			return err
		}

		for _, c := range th.Comments {
			if _, err := fmt.Fprintln(w, tr.Comment(c)); err != nil {
				return err
			}
		}
	}

	return nil
}

// Comments writes one comment per line.
func (tr *TextRenderer) Comments(w io.Writer, comments []api.Comment) error {
	if len(comments) == 0 {
		_, err := fmt.Fprintln(w, tr.muted.Render("No comments yet."))
		return err
	}

	for _, c := range comments {
		if _, err := fmt.Fprintln(w, tr.Comment(c)); err != nil {
			return err
		}
	}

	return nil
}

// Topics writes one "id  name" line per topic.
func (tr *TextRenderer) Topics(w io.Writer, topics []api.Topic) error {
	for _, t := range topics {
		if _, err := fmt.Fprintf(w, "%s  %s\n", tr.muted.Render(t.ID), tr.topic.Render(t.Name)); err != nil {
			return err
		}
	}

	return nil
}

// User writes a short identity line.
func (tr *TextRenderer) User(w io.Writer, u *api.User) error {
	if u == nil {
		_, err := fmt.Fprintln(w, tr.muted.Render("Not logged in."))
		return err
	}

	_, err := fmt.Fprintf(w, "%s %s\n", tr.author.Render(u.Username), tr.muted.Render("<"+u.Email+"> ("+u.ID+")"))

	return err
}
