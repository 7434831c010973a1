package commands

import (
	"os"

	"github.com/spf13/cobra"

	"nodestack/internal/client"
)

// newClient builds an API client from the --server flag, the
// NODESTACK_SERVER environment variable, or the local default.
func newClient(cmd *cobra.Command) (*client.Client, error) {
	url, _ := cmd.Flags().GetString("server")
	if url == "" {
		url = os.Getenv("NODESTACK_SERVER")
	}
	if url == "" {
		url = client.DefaultServerURL()
	}
	return client.New(url)
}
