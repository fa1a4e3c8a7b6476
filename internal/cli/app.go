package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/loop/internal/api"
	"github.com/hupe1980/loop/internal/config"
	"github.com/hupe1980/loop/internal/feed"
	"github.com/hupe1980/loop/internal/logging"
	"github.com/hupe1980/loop/internal/output"
	"github.com/hupe1980/loop/internal/session"
	"github.com/hupe1980/loop/internal/version"
)

// errNotLoggedIn is returned by commands that need a signed-in user.
var errNotLoggedIn = errors.New(`not logged in: run "loop login" first`)

// app bundles what the API commands share.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *session.Store
	state  *session.State
	client *api.Client
}

// newApp builds an API client from the loaded configuration, seeded with the
// cookies of the stored session.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	store := session.NewStore(cfg.SessionFile)

	state, err := store.Load()
	if err != nil {
		return nil, err
	}

	client, err := api.New(api.Config{
		BaseURL:        cfg.APIBaseURL(),
		CSRFHeaderName: cfg.CSRFHeader,
		CSRFCookieName: cfg.CSRFCookie,
		Timeout:        cfg.Timeout,
		Cookies:        state.Cookies,
		UserAgent:      version.GetInfo().UserAgent(),
		Logger:         logger,
	})
	if err != nil {
		return nil, usageError(err)
	}

	return &app{cfg: cfg, logger: logger, store: store, state: state, client: client}, nil
}

func (a *app) feed() *feed.Service {
	return feed.NewService(a.client, feed.WithLogger(a.logger))
}

func (a *app) sessions() (*session.Manager, error) {
	return session.NewManager(a.client, a.store)
}

// user returns the signed-in user or errNotLoggedIn.
func (a *app) user() (*api.User, error) {
	if !a.state.Authenticated() {
		return nil, errNotLoggedIn
	}

	return a.state.User, nil
}

// findPost returns the post with id from the feed.
func (a *app) findPost(ctx context.Context, id string) (*api.Post, error) {
	posts, err := a.client.Posts(ctx)
	if err != nil {
		return nil, err
	}

	for i := range posts {
		if posts[i].ID == id {
			return &posts[i], nil
		}
	}

	return nil, fmt.Errorf("post %q: %w", id, api.ErrNotFound)
}

// text returns a renderer for w honouring --no-color.
func (a *app) text(w io.Writer) *output.TextRenderer {
	return output.NewTextRenderer(w, output.TextOptions{NoColor: a.cfg.NoColor})
}

// printer writes a command result in the format chosen by -o.
type printer struct {
	format string
	w      io.Writer
	text   func(tr *output.TextRenderer, w io.Writer) error
}

func (p printer) print(a *app, v any) error {
	if p.format == output.FormatText {
		return p.text(a.text(p.w), p.w)
	}

	data, err := output.Serialize(v, p.format)
	if err != nil {
		return err
	}

	return output.NewStreamWriter(p.w).Write(data)
}

// addFormatFlag registers -o with text as the default.
func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "output", "o", output.FormatText, "output format: text, json, yaml")
}

func validateFormat(format string) error {
	if err := output.ValidateFormat(format, output.FormatText, output.FormatJSON, output.FormatYAML); err != nil {
		return usageError(err)
	}

	return nil
}

// readUpload loads an image file for a multipart upload. The content type
// comes from the extension, falling back to sniffing the data.
func readUpload(path string) (*api.Upload, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(data)
	}

	return &api.Upload{
		Filename:    filepath.Base(path),
		ContentType: ct,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
