package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cjnlabay/midterm/internal/api"
	"github.com/cjnlabay/midterm/internal/form"
	"github.com/cjnlabay/midterm/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user", "u"},
	Short:   "Manage user records",
}

var usersListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all users",
	RunE:    runUsersList,
}

var usersShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersShow,
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	Long: `Create a user record.

Examples:
  trashtalk users add --fullname "Ann Lee" --username ann --email ann@example.com
  trashtalk users add --fullname "Bob" --username bob --email bob@example.com --password s3cret`,
	RunE: runUsersAdd,
}

var usersEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a user",
	Long: `Edit a user record. Fields that are not given keep their current value.
The password is only changed when --password is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersEdit,
}

var usersDeleteCmd = &cobra.Command{
	Use:     "delete [id]",
	Aliases: []string{"rm"},
	Short:   "Delete a user",
	Args:    cobra.ExactArgs(1),
	RunE:    runUsersDelete,
}

var (
	listJSON    bool
	deleteForce bool
)

func addDraftFlags(cmd *cobra.Command) {
	for _, f := range form.Fields() {
		cmd.Flags().String(string(f), "", "User "+string(f))
	}
}

func init() {
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersShowCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersEditCmd)
	usersCmd.AddCommand(usersDeleteCmd)

	usersListCmd.Flags().BoolVar(&listJSON, "json", false, "Print JSON")
	addDraftFlags(usersAddCmd)
	addDraftFlags(usersEditCmd)
	usersDeleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Do not ask for confirmation")
}

// applyFlags copies the draft flags given on the command line into the form
func applyFlags(cmd *cobra.Command, f *form.Form) error {
	var err error
	cmd.Flags().Visit(func(fl *pflag.Flag) {
		field, perr := form.ParseField(fl.Name)
		if perr != nil || err != nil {
			return
		}
		err = f.Set(field, fl.Value.String())
	})
	return err
}

func runUsersList(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	users, err := app.Users.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %s", api.Message(err))
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}

	if len(users) == 0 {
		fmt.Fprintln(out, "No users found. Add one with: trashtalk users add")
		return nil
	}

	printUsers(out, users)
	return nil
}

func printUsers(out io.Writer, users []model.User) {
	fmt.Fprintf(out, "\n👥 Users (%d)\n", len(users))
	fmt.Fprintln(out, strings.Repeat("─", 72))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, u := range users {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", u.ID, truncate(u.Fullname, 24), u.Username, u.Email)
	}
	tw.Flush()
	fmt.Fprintln(out)
}

func printUser(out io.Writer, u model.User) {
	fmt.Fprintf(out, "ID:        %s\n", u.ID)
	fmt.Fprintf(out, "Full name: %s\n", u.Fullname)
	fmt.Fprintf(out, "Username:  %s\n", u.Username)
	fmt.Fprintf(out, "Email:     %s\n", u.Email)
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(out, "Created:   %s\n", u.CreatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
	if !u.UpdatedAt.IsZero() {
		fmt.Fprintf(out, "Updated:   %s\n", u.UpdatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
}

// truncate shortens s to max runes
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func runUsersShow(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Session.Present(ctx) {
		return errors.New(api.Message(api.ErrAuthRequired))
	}
	u, err := app.Client.GetUser(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load user %s: %s", args[0], api.Message(err))
	}

	printUser(cmd.OutOrStdout(), u)
	return nil
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	var f form.Form
	if err := applyFlags(cmd, &f); err != nil {
		return err
	}

	u, err := app.Users.Create(ctx, f.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to create user: %s", api.Message(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created: %s (ID: %s)\n", u.DisplayName(), u.ID)
	return nil
}

func runUsersEdit(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.Users.FetchAll(ctx); err != nil {
		return fmt.Errorf("failed to load users: %s", api.Message(err))
	}
	current, ok := app.Users.Get(args[0])
	if !ok {
		return fmt.Errorf("user not found: %s", args[0])
	}

	var f form.Form
	f.LoadFrom(current)
	if err := applyFlags(cmd, &f); err != nil {
		return err
	}

	id, _ := f.EditingID()
	u, err := app.Users.Update(ctx, id, f.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to update user: %s", api.Message(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated: %s (ID: %s)\n", u.DisplayName(), u.ID)
	return nil
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	id := args[0]
	out := cmd.OutOrStdout()

	if app.Config.ConfirmDelete && !deleteForce {
		label := id
		if _, err := app.Users.FetchAll(ctx); err == nil {
			if u, ok := app.Users.Get(id); ok {
				label = fmt.Sprintf("%q (ID: %s)", u.DisplayName(), u.ID)
			}
		}
		fmt.Fprintf(out, "About to delete: %s\n", label)
		if !newPrompter(cmd).confirm("Are you sure?") {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := app.Users.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %s", api.Message(err))
	}

	fmt.Fprintf(out, "🗑️  Deleted: %s\n", id)
	return nil
}
