package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewRestartCommand creates the restart command
func NewRestartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restart <service>...",
		Short: "Restart services in dependency order",
		Long: `Restarts the named services. Dependencies are restarted before their
dependents; services that are not registered are reported as skipped. A
failed restart never aborts the rest of the plan.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			result, err := c.Restart(cmd.Context(), args)
			if err != nil {
				return err
			}

			fmt.Printf("Plan %s completed in %s\n",
				result.PlanID, result.CompletedAt.Sub(result.StartedAt).Round(10*time.Millisecond))

			for _, name := range result.Restarted {
				fmt.Printf("  restarted  %s\n", name)
			}
			for _, f := range result.Failed {
				fmt.Printf("  failed     %s: %s\n", f.Name, f.Error)
			}
			for _, s := range result.Skipped {
				fmt.Printf("  skipped    %s (%s)\n", s.Name, s.Reason)
			}

			if len(result.Failed) > 0 {
				return fmt.Errorf("%d of %d restarts failed",
					len(result.Failed), len(result.Restarted)+len(result.Failed))
			}
			return nil
		},
	}
}

// NewRestartsCommand creates the restart history command
func NewRestartsCommand() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "restarts",
		Short: "Show recorded restart plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}

			history, err := c.GetRestartHistory(cmd.Context(), page, pageSize)
			if err != nil {
				return err
			}
			if len(history.Plans) == 0 {
				fmt.Println("No restart history")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "PLAN\tSTARTED\tRESTARTED\tFAILED\tSKIPPED")
			for _, p := range history.Plans {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
					p.ID, p.StartedAt.Format("2006-01-02 15:04:05"), p.Restarted, p.Failed, p.Skipped)
			}
			w.Flush()
			fmt.Printf("\nPage %d of %d plans\n", history.Page, history.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Plans per page")

	return cmd
}
