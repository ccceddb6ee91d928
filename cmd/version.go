package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
)

// Version is set at build time via ldflags
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = Version
	api.Version = Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Long = fmt.Sprintf(`Knowrithm CLI %s

Interact with the Knowrithm platform from the terminal: manage agents,
conversations, documents, database connections, leads, companies,
analytics, and website sources.

Get started:
  knowrithm config set-base-url <url>   Point the CLI at your instance
  knowrithm auth login                  Authenticate and cache tokens
  knowrithm agent list                  List your agents
  knowrithm conversation chat -i        Chat with the active agent`, Version)
}
