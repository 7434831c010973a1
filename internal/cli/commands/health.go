package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nodestack/internal/types"
)

// NewHealthCommand creates the service health command
func NewHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "health [service]",
		Aliases: []string{"services"},
		Short:   "Show service health, for the whole stack or one service",
		Args:    cobra.MaximumNArgs(1),
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

			snap, err := c.GetHealth(cmd.Context())
			if err != nil {
				return err
			}
			if len(snap.Services) == 0 {
				fmt.Println("No health snapshot yet")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "SERVICE\tPROFILE\tSTATUS\tDEPS\tVERSION\tERROR")
			for _, svc := range snap.Services {
				deps := "ok"
				if !svc.Record.DependencyStatus.AllHealthy {
					deps = "degraded"
				}
				version := "-"
				if svc.Record.Version != nil {
					version = *svc.Record.Version
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					svc.Name, svc.Profile, svc.Record.Status, deps, version, svc.Record.Error)
			}
			w.Flush()
			fmt.Printf("\nSnapshot taken at %s\n", snap.TakenAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func printServiceHealth(svc *types.ServiceHealth) {
	fmt.Printf("Service:  %s (%s)\n", svc.Name, svc.DisplayName)
	fmt.Printf("Profile:  %s\n", svc.Profile)
	fmt.Printf("Critical: %t\n", svc.Critical)
	fmt.Printf("Status:   %s\n", svc.Record.Status)
	if svc.Record.DockerState != "" {
		fmt.Printf("Container state: %s\n", svc.Record.DockerState)
	}
	if svc.Record.UptimeSeconds != nil {
		fmt.Printf("Uptime:   %ds\n", *svc.Record.UptimeSeconds)
	}
	if svc.Record.Version != nil {
		fmt.Printf("Version:  %s\n", *svc.Record.Version)
	}
	if svc.Record.Error != "" {
		fmt.Printf("Error:    %s\n", svc.Record.Error)
	}
	if len(svc.Record.DependencyStatus.Dependencies) > 0 {
		fmt.Println("Dependencies:")
		for _, dep := range svc.Record.DependencyStatus.Dependencies {
			state := "down"
			if dep.Healthy {
				state = "up"
			}
			fmt.Printf("  %-20s %s\n", dep.Name, state)
		}
	}
	fmt.Printf("Checked:  %s\n", svc.Record.LastCheck.Format("2006-01-02 15:04:05"))
}
