package cli

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/loop/internal/api"
	"github.com/hupe1980/loop/internal/api/apitest"
	"github.com/hupe1980/loop/internal/forms"
	"github.com/hupe1980/loop/internal/session"
)

func TestLogin(t *testing.T) {
	srv := apitest.NewServer(t)
	sessionFile := filepath.Join(t.TempDir(), "loop", "session.yaml")

	stdout, _, err := executeCommand("--api-url", srv.URL, "--session-file", sessionFile,
		"login", "-u", "User", "-p", apitest.Password)
	require.NoError(t, err)
	assert.Equal(t, "Logged in as User.\n", stdout)

	state, err := session.NewStore(sessionFile).Load()
	require.NoError(t, err)
	require.True(t, state.Authenticated())
	assert.Equal(t, "user", state.User.ID)
	assert.Equal(t, apitest.SessionID, state.Cookies["sessionid"])
	assert.Equal(t, apitest.CSRFToken, state.Cookies["csrftoken"])

	info, err := os.Stat(sessionFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Equal(t, map[string]any{"username": "User", "password": apitest.Password}, srv.LastRequest().JSON)
}

func TestLogin_PasswordStdin(t *testing.T) {
	srv := apitest.NewServer(t)
	sessionFile := filepath.Join(t.TempDir(), "session.yaml")

	stdout, _, err := executeCommandWithInput(apitest.Password+"\n",
		"--api-url", srv.URL, "--session-file", sessionFile, "login", "-u", "User", "--password-stdin")
	require.NoError(t, err)
	assert.Equal(t, "Logged in as User.\n", stdout)
}

func TestLogin_Errors(t *testing.T) {
	t.Run("bad credentials", func(t *testing.T) {
		run := apiRunner(t, apitest.NewServer(t))

		_, err := run("login", "-u", "User", "-p", "wrongpassword")
		require.ErrorIs(t, err, api.ErrBadRequest)
		assert.Contains(t, err.Error(), apitest.DetailBadCredentials)

		stdout, err := run("whoami")
		require.NoError(t, err)
		assert.Equal(t, "Not logged in.\n", stdout)
	})

	t.Run("invalid input", func(t *testing.T) {
		srv := apitest.NewServer(t)

		_, err := apiRunner(t, srv)("login", "-u", "ab", "-p", "short")
		requireExitCode(t, err, 2)
		assert.Contains(t, err.Error(), forms.MsgUsername)
		assert.Contains(t, err.Error(), forms.MsgPassword)
		assert.Empty(t, srv.Requests())
	})

	t.Run("password flags are exclusive", func(t *testing.T) {
		_, _, err := executeCommand("login", "-u", "User", "-p", "x", "--password-stdin")
		require.Error(t, err)
	})
}

func TestRegister(t *testing.T) {
	srv := apitest.NewServer(t)
	run := apiRunner(t, srv)

	stdout, err := run("register", "-u", "alice", "-p", "s3cretpass", "-e", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Registered and logged in as alice.\n", stdout)

	stdout, err = run("whoami", "-o", "json")
	require.NoError(t, err)

	var user api.User
	require.NoError(t, json.Unmarshal([]byte(stdout), &user))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = run("signup", "-u", "alice", "-p", "s3cretpass", "-e", "alice@example.com")
	require.ErrorIs(t, err, api.ErrBadRequest)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRegister_InvalidEmail(t *testing.T) {
	srv := apitest.NewServer(t)

	_, err := apiRunner(t, srv)("register", "-u", "alice", "-p", "s3cretpass", "-e", "alice@localhost")
	requireExitCode(t, err, 2)
	assert.Contains(t, err.Error(), forms.MsgEmail)
	assert.Empty(t, srv.Requests())
}

func TestWhoami(t *testing.T) {
	run := loggedIn(t, apitest.NewServer(t))

	stdout, err := run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "User <user@example.com> (user)\n", stdout)

	stdout, err = run("whoami", "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "email: user@example.com\nid: user\nusername: User\n", stdout)
}

func TestLogout(t *testing.T) {
	srv := apitest.NewServer(t)
	run := loggedIn(t, srv)

	stdout, err := run("logout")
	require.NoError(t, err)
	assert.Equal(t, "Logged out.\n", stdout)
	assert.Equal(t, "/api/logout/", srv.LastRequest().Path)

	stdout, err = run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in.\n", stdout)

	before := len(srv.Requests())

	stdout, err = run("logout")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in.\n", stdout)
	assert.Len(t, srv.Requests(), before)
}

func TestLogout_ServerFailureKeepsSession(t *testing.T) {
	srv := apitest.NewServer(t)
	run := loggedIn(t, srv)

	srv.Fail(http.MethodPost, "/logout/", http.StatusInternalServerError, map[string]any{"detail": "down"})

	_, err := run("logout")
	require.ErrorIs(t, err, api.ErrServer)

	stdout, err := run("whoami")
	require.NoError(t, err)
	assert.Contains(t, stdout, "User <user@example.com>")
}

func TestToken(t *testing.T) {
	run := apiRunner(t, apitest.NewServer(t))

	stdout, err := run("token", "-u", "User", "-p", apitest.Password)
	require.NoError(t, err)

	var token api.Token
	require.NoError(t, json.Unmarshal([]byte(stdout), &token))
	assert.Equal(t, api.Token{Access: "access-User", Refresh: "refresh-User"}, token)

	stdout, err = run("token", "-u", "User", "-p", apitest.Password, "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "access: access-User\nrefresh: refresh-User\n", stdout)

	_, err = run("token", "-u", "User", "-p", "wrongpassword")
	require.ErrorIs(t, err, api.ErrUnauthorized)

	_, err = run("token", "-u", "User", "-p", apitest.Password, "-o", "text")
	requireExitCode(t, err, 2)

	stdout, err = run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in.\n", stdout)
}
