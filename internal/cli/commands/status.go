package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the system status command
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [service]",
		Short: "Show overall stack status, or one service's health",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				svc, err := c.GetServiceHealth(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printServiceHealth(svc)
				return nil
			}

			status, err := c.GetStatus(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Status:    %s\n", status.Status)
			fmt.Printf("Uptime:    %s\n", status.Uptime)
			fmt.Printf("Services:  %d\n", status.Services)
			fmt.Printf("Profiles:  %d\n", status.Profiles)
			fmt.Printf("Runtime:   %s\n", status.Components.Runtime)
			fmt.Printf("Database:  %s\n", status.Components.Database)
			if status.LastCycle != nil {
				fmt.Printf("Last check: %s\n", status.LastCycle.Format("2006-01-02 15:04:05"))
			}

			if len(status.StatusCounts) > 0 {
				fmt.Println("\nHealth:")
				keys := make([]string, 0, len(status.StatusCounts))
				for k := range status.StatusCounts {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("  %-10s %d\n", k, status.StatusCounts[k])
				}
			}

			return nil
		},
	}
}
