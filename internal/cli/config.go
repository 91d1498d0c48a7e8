package cli

import (
	"fmt"

	"github.com/cjnlabay/midterm/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change client settings",
	Long: `Show or change settings stored in config.yaml.

Examples:
  trashtalk config                                   # Show settings
  trashtalk config set-server https://api.example.com/api/`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	RunE:  runConfigShow,
}

var configSetServerCmd = &cobra.Command{
	Use:   "set-server [url]",
	Short: "Change the backend base URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetServer,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetServerCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	shown := *cfg
	if shown.S3.SecretKey != "" {
		shown.S3.SecretKey = "********"
	}
	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", path)
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigSetServer(cmd *cobra.Command, args []string) error {
	updated := *cfg
	updated.ServerURL = args[0]
	if err := updated.Validate(); err != nil {
		return err
	}
	if err := updated.Save(); err != nil {
		return err
	}
	*cfg = updated

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Server set to %s\n", updated.ServerURL)
	return nil
}
