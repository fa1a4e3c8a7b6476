// Package cli implements the cobra command tree for loop.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/loop/internal/config"
	"github.com/hupe1980/loop/internal/logging"
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// usageError marks err as a usage or input problem (exit code 2).
func usageError(err error) error {
	return &ExitError{Code: 2, Err: err}
}

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return 1
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "loop",
		Short: "Command-line client for the Loop social feed",
		Long: `loop is a command-line client for the Loop social feed API.

It reads the feed, publishes posts and comments, votes, saves posts, and
manages a cookie-based session stored on disk. It also ships the developer
tools used around the API: key-case conversion between the camelCase view
model and the snake_case wire format, and fixture generation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return usageError(err)
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("apiURL", cfg.APIURL),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .loop.yaml)")
	pf.String("log-level", config.LogLevelInfo, "log level: debug, info, warn, error")
	pf.String("log-format", config.LogFormatText, "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.String("api-url", config.DefaultAPIURL, "Loop server URL (the API lives under /api)")
	pf.Duration("timeout", config.DefaultTimeout, "HTTP request timeout")
	pf.String("session-file", "", "session file (default: ~/.config/loop/session.yaml)")
	pf.String("csrf-header", config.DefaultCSRFHeader, "header carrying the CSRF token")
	pf.String("csrf-cookie", config.DefaultCSRFCookie, "cookie holding the CSRF token")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	cmd.AddCommand(
		newVersionCommand(),
		newCompletionCommand(),
		newConvertCommand(),
		newFixtureCommand(),
		newPostsCommand(),
		newCommentsCommand(),
		newTopicsCommand(),
		newLoginCommand(),
		newRegisterCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newTokenCommand(),
	)

	return cmd
}
