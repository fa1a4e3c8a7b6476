package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/loop/internal/api/apitest"
)

// executeCommand is a test helper that runs the CLI with the given args and
// captures both stdout and stderr.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	return executeCommandWithInput("", args...)
}

// executeCommandWithInput is executeCommand with stdin.
func executeCommandWithInput(stdin string, args ...string) (stdout, stderr string, err error) {
	cmd := NewRootCommand()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()

	return outBuf.String(), errBuf.String(), err
}

// apiRunner runs commands against srv, sharing one session file.
func apiRunner(t *testing.T, srv *apitest.Server) func(args ...string) (string, error) {
	t.Helper()

	sessionFile := filepath.Join(t.TempDir(), "session.yaml")

	return func(args ...string) (string, error) {
		full := append([]string{"--api-url", srv.URL, "--session-file", sessionFile, "--no-color"}, args...)
		stdout, _, err := executeCommand(full...)

		return stdout, err
	}
}

// loggedIn returns an apiRunner whose session belongs to the default user.
func loggedIn(t *testing.T, srv *apitest.Server) func(args ...string) (string, error) {
	t.Helper()

	run := apiRunner(t, srv)

	_, err := run("login", "-u", "User", "-p", apitest.Password)
	require.NoError(t, err)

	return run
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()

	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.Code)
}

// ---------------------------------------------------------------------------
// Help output
// ---------------------------------------------------------------------------

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	require.NoError(t, err)

	for _, sub := range []string{
		"convert", "fixture", "posts", "comments", "topics",
		"login", "register", "logout", "whoami", "token", "version", "completion",
	} {
		assert.Contains(t, stdout, sub, "help should mention %q subcommand", sub)
	}

	for _, flag := range []string{
		"--config", "--log-level", "--log-format", "--no-color", "--quiet",
		"--api-url", "--timeout", "--session-file", "--csrf-header", "--csrf-cookie",
	} {
		assert.Contains(t, stdout, flag, "help should mention %q flag", flag)
	}
}

// ---------------------------------------------------------------------------
// Unknown flags → exit code 2
// ---------------------------------------------------------------------------

func TestRootCommand_UnknownFlag(t *testing.T) {
	_, _, err := executeCommand("--nonexistent")
	requireExitCode(t, err, 2)
}

// ---------------------------------------------------------------------------
// SilenceErrors – cobra must not print errors itself
// ---------------------------------------------------------------------------

func TestRootCommand_SilenceErrors(t *testing.T) {
	_, stderr, err := executeCommand("--nonexistent")
	require.Error(t, err)
	assert.Empty(t, stderr, "cobra should not print errors to stderr (SilenceErrors)")
}

// ---------------------------------------------------------------------------
// Configuration errors → exit code 2
// ---------------------------------------------------------------------------

func TestRootCommand_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing config file",
			args: []string{"--config", "/nonexistent/path.yaml", "topics"},
			want: "reading config file",
		},
		{
			name: "invalid log level",
			args: []string{"--log-level", "trace", "topics"},
			want: "invalid log level",
		},
		{
			name: "invalid log format",
			args: []string{"--log-format", "xml", "topics"},
			want: "invalid log format",
		},
		{
			name: "invalid api url",
			args: []string{"--api-url", "ftp://example.com", "topics"},
			want: "invalid api url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(tt.args...)
			requireExitCode(t, err, 2)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRootCommand_EnvConfig(t *testing.T) {
	srv := apitest.NewServer(t)

	t.Setenv("LOOP_API_URL", srv.URL)
	t.Setenv("LOOP_SESSION_FILE", filepath.Join(t.TempDir(), "session.yaml"))

	stdout, _, err := executeCommand("topics", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Topic 1")
}

func TestRootCommand_TransportErrorIsRuntimeFailure(t *testing.T) {
	srv := apitest.NewServer(t)
	url := srv.URL
	srv.Close()

	_, _, err := executeCommand("--api-url", url, "--session-file", filepath.Join(t.TempDir(), "s.yaml"), "topics")
	require.Error(t, err)

	var exitErr *ExitError
	assert.NotErrorAs(t, err, &exitErr)
}

// ---------------------------------------------------------------------------
// Execute helper
// ---------------------------------------------------------------------------

func TestExecute_Success(t *testing.T) {
	code := Execute()
	// Execute runs with no args, which shows help and returns 0.
	assert.Equal(t, 0, code)
}

// ---------------------------------------------------------------------------
// ExitError
// ---------------------------------------------------------------------------

func TestExitError_ErrorWithMessage(t *testing.T) {
	err := &ExitError{Code: 1, Err: assert.AnError}
	assert.Contains(t, err.Error(), assert.AnError.Error())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestExitError_ErrorWithoutMessage(t *testing.T) {
	err := &ExitError{Code: 42}
	assert.Equal(t, "exit code 42", err.Error())
	assert.Nil(t, err.Unwrap())
}
