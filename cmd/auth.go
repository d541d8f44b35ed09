package cmd

import (
	"fmt"
	"time"

	"testagent/internal/adapters"
	"testagent/internal/events"
	"testagent/internal/formatting"
	"testagent/internal/login"
	"testagent/pkg/logging"
	"testagent/pkg/models"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

type loginOptions struct {
	token     string
	idToken   string
	code      string
	state     string
	noBrowser bool
	timeout   time.Duration
}

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in and out of the testing-agent backend",
		Long: `Manage the backend session stored in the session directory.

Signing in opens GitHub in the browser and receives the token on a local
callback. Alternatives:
  --token <jwt>        store an existing backend token (verified first)
  --id-token <token>   exchange a Google ID token
  --code <code>        exchange a Google authorization code`,
	}

	authCmd.AddCommand(newLoginCmd(), newLogoutCmd(), newAuthStatusCmd(), newWhoamiCmd())
	return authCmd
}

func newLoginCmd() *cobra.Command {
	opts := &loginOptions{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.login(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.token, "token", "", "Use an existing backend token")
	cmd.Flags().StringVar(&opts.idToken, "id-token", "", "Exchange a Google ID token")
	cmd.Flags().StringVar(&opts.code, "code", "", "Exchange a Google authorization code")
	cmd.Flags().StringVar(&opts.state, "state", "", "State that accompanied --code")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "Print the sign-in URL instead of opening a browser")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", login.DefaultTimeout, "How long to wait for the browser sign-in")
	cmd.MarkFlagsMutuallyExclusive("token", "id-token", "code")
	return cmd
}

func (a *application) login(cmd *cobra.Command, opts *loginOptions) error {
	ctx := cmd.Context()

	var (
		result *adapters.LoginResult
		err    error
	)
	switch {
	case opts.token != "":
		result = &adapters.LoginResult{Token: &oauth2.Token{AccessToken: opts.token, TokenType: "Bearer"}}
	case opts.idToken != "":
		result, err = a.api.Auth.GoogleLogin(ctx, opts.idToken)
	case opts.code != "":
		result, err = a.api.Auth.GoogleCallback(ctx, opts.code, opts.state)
	default:
		result, err = a.browserLogin(cmd, opts)
	}
	if err != nil {
		return err
	}
	if result == nil || result.Token == nil || result.Token.AccessToken == "" {
		return fmt.Errorf("sign-in did not return a token")
	}

	if err := a.session.SetToken(result.Token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	user := result.User
	if user == nil {
		me, err := a.api.Auth.Me(ctx)
		if err != nil {
			_ = a.session.SetToken(nil)
			return fmt.Errorf("failed to verify token: %w", err)
		}
		user = me
	}
	if err := a.session.SetUser(user); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}

	logging.Info("Auth", "Signed in as %s", user.Email)
	if a.printer.Structured() {
		return a.printer.PrintValue(user)
	}
	a.printer.Message("Signed in as %s", userLabel(user))
	return nil
}

func (a *application) browserLogin(cmd *cobra.Command, opts *loginOptions) (*adapters.LoginResult, error) {
	flow := &login.Flow{
		Port:    a.cfg.Backend.GitHubCallbackPort,
		Timeout: opts.timeout,
		OnURL: func(url string) {
			fmt.Fprintf(a.errOut, "Open this URL to sign in:\n  %s\n", url)
		},
	}
	if opts.noBrowser {
		flow.Open = func(string) error { return nil }
	}

	s := a.startSpinner("Waiting for the browser sign-in...")
	res, err := flow.Run(cmd.Context(), a.api.Auth.GitHubLoginURL)
	stopSpinner(s, err)
	if err != nil {
		return nil, err
	}

	if res.Token != "" {
		return &adapters.LoginResult{Token: &oauth2.Token{AccessToken: res.Token, TokenType: "Bearer"}}, nil
	}
	return a.api.Auth.GoogleCallback(cmd.Context(), res.Code, res.State)
}

func newLogoutCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored credentials",
		Long: `Remove the stored token and user. The current project is kept so the
next login resumes with it; --all clears it as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if all {
				if err := app.session.Clear(); err != nil {
					return err
				}
				app.printer.Message("Session cleared")
				return nil
			}
			if !app.session.Authenticated() {
				app.printer.Message("Not signed in")
				return nil
			}
			if err := app.session.Logout(events.LogoutUser); err != nil {
				return err
			}
			app.printer.Message("Signed out")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Also forget the current project")
	return cmd
}

// authStatus is the machine-readable shape of 'auth status'.
type authStatus struct {
	Authenticated bool                `json:"authenticated" yaml:"authenticated"`
	Verified      *bool               `json:"verified,omitempty" yaml:"verified,omitempty"`
	Backend       string              `json:"backend" yaml:"backend"`
	User          *models.UserProfile `json:"user,omitempty" yaml:"user,omitempty"`
	Project       *models.Project     `json:"project,omitempty" yaml:"project,omitempty"`
}

func newAuthStatusCmd() *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}

			st := authStatus{
				Authenticated: app.session.Authenticated(),
				Backend:       app.cfg.Backend.URL,
				User:          app.session.User(),
				Project:       app.session.Project(),
			}
			if verify && st.Authenticated {
				user, err := app.api.Auth.VerifyToken(cmd.Context())
				ok := err == nil && user != nil
				st.Verified = &ok
				if ok {
					st.User = user
					if err := app.session.SetUser(user); err != nil {
						logging.Warn("Auth", "Failed to refresh stored user: %v", err)
					}
				}
			}

			if app.printer.Structured() {
				return app.printer.PrintValue(st)
			}
			return app.printer.Print(statusView(st))
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "Check the token against the backend")
	return cmd
}

func statusView(st authStatus) formatting.KeyValueView {
	signedIn := "no"
	if st.Authenticated {
		signedIn = "yes"
	}
	pairs := [][2]string{
		{"Backend", st.Backend},
		{"Signed in", signedIn},
	}
	if st.Verified != nil {
		verified := "no"
		if *st.Verified {
			verified = "yes"
		}
		pairs = append(pairs, [2]string{"Token valid", verified})
	}
	if st.User != nil {
		pairs = append(pairs, [2]string{"User", userLabel(st.User)})
	}
	project := "-"
	if st.Project != nil {
		project = fmt.Sprintf("%s (%s)", st.Project.Name, st.Project.Key())
	}
	pairs = append(pairs, [2]string{"Project", project})
	return formatting.KeyValueView{Heading: "Session", Pairs: pairs, Raw: st}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user as reported by the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			user, err := app.api.Auth.Me(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.session.SetUser(user); err != nil {
				logging.Warn("Auth", "Failed to refresh stored user: %v", err)
			}
			return app.printer.Print(formatting.UserDetail(*user))
		},
	}
}

func userLabel(u *models.UserProfile) string {
	if u.Name != "" && u.Email != "" {
		return fmt.Sprintf("%s <%s>", u.Name, u.Email)
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}
