package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewProfilesCommand creates the profile commands
func NewProfilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect service profiles",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List canonical profile ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			profiles, err := c.GetProfiles(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range profiles {
				fmt.Println(p)
			}
			return nil
		},
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve a profile id, legacy aliases included, to its services",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			resolved, err := c.ResolveProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if resolved.Legacy {
				fmt.Printf("%s is a legacy alias for: %s\n", resolved.Profile, strings.Join(resolved.Canonical, ", "))
			}
			if len(resolved.Services) == 0 {
				fmt.Printf("No services in profile %q\n", resolved.Profile)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "SERVICE\tPROFILE\tPROTOCOL\tENDPOINT\tCRITICAL")
			for _, svc := range resolved.Services {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
					svc.Name, svc.Profile, svc.Protocol, svc.Endpoint, svc.Critical)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(listCmd, resolveCmd)
	return cmd
}
