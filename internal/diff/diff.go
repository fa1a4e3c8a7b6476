// Package diff renders unified diffs between two rendered documents, used to
// show what a key-case conversion changes.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"
)

// Result is a computed unified diff.
type Result struct {
	Unified        string
	HasDifferences bool
	Hunks          []string
	OldLabel       string
	NewLabel       string
}

// Options configures Compute.
type Options struct {
	OldLabel string
	NewLabel string
	Context  int
}

// DefaultOptions labels the sides "input" and "output" with three lines of
// context.
func DefaultOptions() Options {
	return Options{
		OldLabel: "input",
		NewLabel: "output",
		Context:  3,
	}
}

// Compute diffs oldDoc against newDoc line by line.
func Compute(oldDoc, newDoc string, opts Options) (*Result, error) {
	ud := difflib.UnifiedDiff{
		A:        splitLines(oldDoc),
		B:        splitLines(newDoc),
		FromFile: opts.OldLabel,
		ToFile:   opts.NewLabel,
		Context:  opts.Context,
	}

	unified, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	res := &Result{
		Unified:        unified,
		HasDifferences: unified != "",
		OldLabel:       opts.OldLabel,
		NewLabel:       opts.NewLabel,
	}

	if res.HasDifferences {
		res.Hunks = hunks(unified)
	}

	return res, nil
}

// Write prints r to w, styling added, removed, and hunk header lines when
// color is set.
func Write(w io.Writer, r *Result, color bool) error {
	if !r.HasDifferences {
		_, err := fmt.Fprintln(w, "No differences found.")
		return err
	}

	s := newStyles(w, color)

	for _, line := range strings.Split(strings.TrimSuffix(r.Unified, "\n"), "\n") {
		if _, err := fmt.Fprintln(w, s.line(line)); err != nil {
			return err
		}
	}

	return nil
}

type styles struct {
	enabled bool
	header  lipgloss.Style
	hunk    lipgloss.Style
	added   lipgloss.Style
	removed lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)

	return styles{
		enabled: color,
		header:  r.NewStyle().Bold(true),
		hunk:    r.NewStyle().Foreground(lipgloss.Color("6")),
		added:   r.NewStyle().Foreground(lipgloss.Color("2")),
		removed: r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func (s styles) line(line string) string {
	if !s.enabled {
		return line
	}

	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		return s.header.Render(line)
	case strings.HasPrefix(line, "@@"):
		return s.hunk.Render(line)
	case strings.HasPrefix(line, "-"):
		return s.removed.Render(line)
	case strings.HasPrefix(line, "+"):
		return s.added.Render(line)
	default:
		return line
	}
}

func hunks(unified string) []string {
	var (
		out     []string
		current strings.Builder
	)

	for _, line := range strings.Split(unified, "\n") {
		if strings.HasPrefix(line, "@@") && current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}

		current.WriteString(line)
		current.WriteString("\n")
	}

	if current.Len() > 0 {
		out = append(out, current.String())
	}

	return out
}

// splitLines keeps line terminators, as difflib expects.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}

	return strings.SplitAfter(s, "\n")
}
