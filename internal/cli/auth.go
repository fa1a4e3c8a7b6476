package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/loop/internal/api"
	"github.com/hupe1980/loop/internal/forms"
	"github.com/hupe1980/loop/internal/output"
)

type credentialOptions struct {
	username      string
	password      string
	passwordStdin bool
}

func (o *credentialOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.username, "username", "u", "", "account username")
	f.StringVarP(&o.password, "password", "p", "", "account password")
	f.BoolVar(&o.passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

// credentials resolves the password from stdin when asked to.
func (o *credentialOptions) credentials(cmd *cobra.Command) (api.Credentials, error) {
	creds := api.Credentials{Username: o.username, Password: o.password}

	if o.passwordStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return creds, fmt.Errorf("reading password: %w", err)
		}

		creds.Password = strings.TrimRight(line, "\r\n")
	}

	return creds, nil
}

func newLoginCommand() *cobra.Command {
	opts := &credentialOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with a username and password.

The session and CSRF cookies returned by the server are stored in the
session file (--session-file) and reused by later commands.`,
		Example: `  loop login -u alice -p 's3cretpass'
  echo 's3cretpass' | loop login -u alice --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := opts.credentials(cmd)
			if err != nil {
				return usageError(err)
			}

			if err := forms.ValidateLogin(creds); err != nil {
				return usageError(err)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			m, err := a.sessions()
			if err != nil {
				return err
			}

			user, err := m.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", user.Username)

			return err
		},
	}

	opts.register(cmd)

	return cmd
}

func newRegisterCommand() *cobra.Command {
	var (
		opts  = &credentialOptions{}
		email string
	)

	cmd := &cobra.Command{
		Use:     "register",
		Aliases: []string{"signup"},
		Short:   "Create an account and sign in",
		Long: `Create an account. Usernames need at least 3 characters, passwords
at least 8, and the email must be a plain address such as
alice@example.com. On success the new session is stored like "loop login"
does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := opts.credentials(cmd)
			if err != nil {
				return usageError(err)
			}

			reg := api.Registration{Username: creds.Username, Password: creds.Password, Email: email}
			if err := forms.ValidateSignup(reg); err != nil {
				return usageError(err)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			m, err := a.sessions()
			if err != nil {
				return err
			}

			user, err := m.Signup(cmd.Context(), reg)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s.\n", user.Username)

			return err
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")

	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Long: `End the session on the server and remove the session file.

If the server rejects the request the local session is kept, so the
command can be retried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			m, err := a.sessions()
			if err != nil {
				return err
			}

			if !m.Authenticated() {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return err
			}

			if err := m.Logout(cmd.Context()); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")

			return err
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			user := a.state.User

			return printer{
				format: format,
				w:      cmd.OutOrStdout(),
				text: func(tr *output.TextRenderer, w io.Writer) error {
					return tr.User(w, user)
				},
			}.print(a, user)
		},
	}

	addFormatFlag(cmd, &format)

	return cmd
}

func newTokenCommand() *cobra.Command {
	var (
		opts   = &credentialOptions{}
		format string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Obtain a JWT access and refresh token pair",
		Long: `Exchange credentials for a JWT access and refresh token pair, for
scripts that talk to the API without cookies. The session file is not
touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := output.ValidateFormat(format, output.FormatJSON, output.FormatYAML); err != nil {
				return usageError(err)
			}

			creds, err := opts.credentials(cmd)
			if err != nil {
				return usageError(err)
			}

			if err := forms.ValidateLogin(creds); err != nil {
				return usageError(err)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			token, err := a.client.Token(cmd.Context(), creds)
			if err != nil {
				return err
			}

			data, err := output.Serialize(token, format)
			if err != nil {
				return err
			}

			return output.NewStreamWriter(cmd.OutOrStdout()).Write(data)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&format, "output", "o", output.FormatJSON, "output format: json, yaml")

	return cmd
}
