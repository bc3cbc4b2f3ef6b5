package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/taskboard/taskboard/internal/tui"
)

type app struct {
	envFile string
}

// open loads configuration and builds the shared collaborators.
func (a *app) open() (*env, error) {
	if a.envFile != "" {
		return openEnv(a.envFile)
	}
	return openEnv()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Your assigned tracker tasks in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive dashboard
  taskboard

  # Sign in without the TUI
  taskboard login --email you@example.com --password ...

  # Print tasks grouped by project, highest priority first
  taskboard tasks --sort task
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(a)
		},
	}
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "read settings from this file instead of .env")

	cmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newTasksCmd(a),
		newServeMockCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func runTUI(a *app) error {
	e, err := a.open()
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck

	e.session.Restore()
	model := tui.NewApp(tui.Deps{
		Session:    e.session,
		NewSource:  e.newSource,
		TrackerURL: e.cfg.TrackerURL,
		Logger:     e.logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "taskboard "+version)
		},
	}
}
