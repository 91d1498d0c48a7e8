package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cjnlabay/midterm/internal/config"
	"github.com/cjnlabay/midterm/internal/logger"
	"github.com/cjnlabay/midterm/internal/tui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	logLevel   string
	logFile    string
	logConsole bool

	// cfg is loaded once per invocation in PersistentPreRunE
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "trashtalk",
	Short: "TrashTalk - manage user profiles from the terminal",
	Long: `TrashTalk is a terminal client for the TrashTalk backend. It logs in,
keeps your session token and lets you list, add, edit and delete user records.

Run 'trashtalk' without arguments to launch the interactive TUI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("server") {
			loaded.ServerURL = serverURL
			configChanged = true
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			loaded.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			loaded.LogConsole = logConsole
			configChanged = true
		}

		if configChanged {
			if err := loaded.Validate(); err != nil {
				return err
			}
			if err := loaded.Save(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  Failed to save config: %v\n", err)
			}
		}
		cfg = loaded

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("TrashTalk started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		app, err := NewApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		logger.Info("Launching TUI")
		m := tui.NewModel(ctx, tui.Deps{
			Auth:  app.Auth,
			Users: app.Users,
		})
		p := tea.NewProgram(m, tea.WithAltScreen())

		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.F("error", err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("TrashTalk exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Backend API base URL (saved to config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(configCmd)
}

// commandContext returns the command's context, never nil
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openApp is the common prologue of commands that talk to the backend
func openApp(cmd *cobra.Command) (*App, context.Context, error) {
	ctx := commandContext(cmd)
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app, ctx, nil
}
