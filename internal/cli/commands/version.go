package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the build version, overridden at link time
var Version = "0.1.0-dev"

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nodestack %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
