package cli

import (
	"github.com/spf13/cobra"
)

// createRootCommand creates the root command with global flags
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nodestack",
		Short: "Node operator stack manager with dependency-aware health checks",
		Long: `nodestack manages a single-host blockchain node stack: the node
itself, its store, indexer and gateways. It probes each service over its
native protocol, propagates dependency health, and restarts services in
dependency order when their configuration changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("server", "", "URL of a running nodestack server (default http://localhost:8585, or NODESTACK_SERVER)")

	return rootCmd
}
