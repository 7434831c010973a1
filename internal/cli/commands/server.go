package commands

import (
	"github.com/spf13/cobra"

	"nodestack/internal/app"
	"nodestack/internal/logger"
)

// NewServerCommand creates the command that runs the stack manager daemon
func NewServerCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the stack manager daemon",
		Long: `Starts the health engine, the configuration watcher and the HTTP
API server, and runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(configPath)
			if err != nil {
				return err
			}

			logger.WithFields(logger.Fields{
				"config":   application.ConfigPath,
				"services": application.Registry.Len(),
			}).Info("Stack manager starting")

			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to stack.toml (default: XDG config dir)")

	return cmd
}
