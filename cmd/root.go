package cmd

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var debugMode bool

var logger = hclog.New(&hclog.LoggerOptions{
	Name:   "knowrithm",
	Level:  hclog.Warn,
	Output: os.Stderr,
})

var rootCmd = &cobra.Command{
	Use:           "knowrithm",
	Short:         "Command-line client for the Knowrithm platform",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugMode {
			logger.SetLevel(hclog.Debug)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}
