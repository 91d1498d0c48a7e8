package cli

import (
	"errors"
	"fmt"

	"github.com/cjnlabay/midterm/internal/api"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Log in to the backend, create an account or end the session.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session token",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account (does not log in)",
	RunE:  runRegister,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a session token is stored",
	RunE:  runStatus,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().String("email", "", "Email address (prompted if empty)")
	loginCmd.Flags().String("password", "", "Password (prompted if empty; visible in shell history)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	p := newPrompter(cmd)
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if email == "" {
		email = p.line("Email")
	}
	if password == "" {
		password = p.password("Password")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🔄 Logging in...")
	if err := app.Auth.Login(ctx, email, password); err != nil {
		if msg := app.Auth.FailureMessage(); msg != "" {
			return errors.New(msg)
		}
		return errors.New(api.Message(err))
	}

	fmt.Fprintln(out, "✅ Logged in successfully!")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	if !app.Session.Present(ctx) {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}

	app.Auth.Logout(ctx)
	fmt.Fprintln(out, "✅ Logged out.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	p := newPrompter(cmd)
	fullname := p.line("Full name")
	username := p.line("Username")
	email := p.line("Email")
	password := p.password("Password")
	confirm := p.password("Confirm Password")

	if password != confirm {
		return errors.New("passwords do not match")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🔄 Creating account...")
	u, err := app.Auth.Register(ctx, fullname, username, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %s", api.Message(err))
	}

	fmt.Fprintf(out, "✅ Account created for %s (id %s). Log in with: trashtalk auth login --email %s\n",
		u.Username, u.ID, u.Email)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Server:  %s\n", app.Client.BaseURL())
	fmt.Fprintf(out, "Scheme:  %s\n", api.ParseScheme(app.Config.AuthScheme))
	if app.Session.Present(ctx) {
		fmt.Fprintln(out, "Session: ✓ logged in")
	} else {
		fmt.Fprintln(out, "Session: not logged in")
	}
	return nil
}
