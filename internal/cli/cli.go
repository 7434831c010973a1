// Package cli assembles the cobra command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"nodestack/internal/cli/commands"
)

// Manager handles CLI operations
type Manager struct {
	rootCmd *cobra.Command
}

// New creates a new CLI manager with all commands registered
func New() *Manager {
	m := &Manager{rootCmd: createRootCommand()}
	m.setupCommands()
	return m
}

func (m *Manager) setupCommands() {
	m.rootCmd.AddCommand(
		commands.NewServerCommand(),
		commands.NewStatusCommand(),
		commands.NewHealthCommand(),
		commands.NewProfilesCommand(),
		commands.NewRestartCommand(),
		commands.NewRestartsCommand(),
		commands.NewVersionCommand(),
	)
}

// ExecuteWithContext runs the command tree with the given arguments
func (m *Manager) ExecuteWithContext(ctx context.Context, args []string) error {
	m.rootCmd.SetArgs(args)
	return m.rootCmd.ExecuteContext(ctx)
}
