// Package watch re-runs a conversion whenever its input files change.
// Events are debounced, and each run reports how the set of key paths in
// the output moved relative to the previous run.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a rerun.
const DefaultDebounce = 300 * time.Millisecond

// RunFunc performs one conversion.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult summarizes one conversion.
type RunResult struct {
	// Documents is the number of documents converted.
	Documents int
	// Paths maps every key path in the output to its value kind.
	Paths map[string]string
}

// Options configures Run.
type Options struct {
	// Files are the inputs to watch.
	Files []string

	// Debounce is the quiet period before a rerun.
	Debounce time.Duration

	Logger *slog.Logger

	// Out receives status lines.
	Out io.Writer
}

// DefaultOptions returns Options with a default debounce writing status to
// stderr.
func DefaultOptions() Options {
	return Options{
		Debounce: DefaultDebounce,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run performs an initial run, then reruns runFn after each change to a
// watched file. It blocks until ctx is cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if len(opts.Files) == 0 {
		return errors.New("no files to watch")
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	targets, err := resolve(opts.Files)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace files by rename, so watch the directories.
	for dir := range dirs(targets) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching directory %q: %w", dir, err)
		}
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", strings.Join(opts.Files, ", "), opts.Debounce)

	r := &runner{opts: opts, runFn: runFn}
	r.run(sigCtx, "(initial)")

	debouncer := NewDebouncer(opts.Debounce, func(paths []string) {
		r.run(sigCtx, strings.Join(paths, ", "))
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "stopped watching")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if _, watched := targets[filepath.Clean(event.Name)]; !watched || !isRelevant(event) {
				continue
			}

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// runner carries the previous result between runs. Runs are serialized by
// the debouncer.
type runner struct {
	opts  Options
	runFn RunFunc
	prev  map[string]string
}

func (r *runner) run(ctx context.Context, trigger string) {
	now := time.Now().Format("15:04:05")

	result, err := r.runFn(ctx)
	if err != nil {
		fmt.Fprintf(r.opts.Out, "[%s] %s -> ERROR: %v\n", now, trigger, err)
		return
	}

	fmt.Fprintf(r.opts.Out, "[%s] %s -> OK (%d documents, %d keys)\n",
		now, trigger, result.Documents, len(result.Paths))

	if r.prev != nil {
		if changes := KeyDiff(r.prev, result.Paths); len(changes) > 0 {
			fmt.Fprintf(r.opts.Out, "  keys: %s\n", KeyDiffSummary(changes))

			for _, c := range changes {
				r.opts.Logger.Debug("key changed",
					slog.String("kind", c.Kind),
					slog.String("path", c.Path),
					slog.String("detail", c.Detail),
				)
			}
		}
	}

	r.prev = result.Paths
}

func resolve(files []string) (map[string]struct{}, error) {
	targets := make(map[string]struct{}, len(files))

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", f, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("watching %q: %w", f, err)
		}

		if info.IsDir() {
			return nil, fmt.Errorf("watching %q: is a directory", f)
		}

		targets[abs] = struct{}{}
	}

	return targets, nil
}

func dirs(targets map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(targets))
	for t := range targets {
		out[filepath.Dir(t)] = struct{}{}
	}

	return out
}

// isRelevant keeps content changes and drops chmod-only events.
func isRelevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}
