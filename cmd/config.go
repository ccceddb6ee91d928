package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/config"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `Manage the CLI configuration stored in ~/.knowrithm/config.json`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the current configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return printResult(cmd, cfg.Redacted(), f)
	},
}

var configSetBaseURLCmd = &cobra.Command{
	Use:   "set-base-url <url>",
	Short: "Set the API base URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.SetBaseURL(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Base URL set to %s\n", cfg.BaseURL)
		return nil
	},
}

var configSetVerifySSLCmd = &cobra.Command{
	Use:   "set-verify-ssl <true|false>",
	Short: "Enable or disable TLS certificate verification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := strconv.ParseBool(args[0])
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", args[0])
		}
		if _, err := config.SetVerifySSL(enabled); err != nil {
			return err
		}
		fmt.Printf("TLS verification set to %v\n", enabled)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetBaseURLCmd)
	configCmd.AddCommand(configSetVerifySSLCmd)
	configCmd.AddCommand(configPathCmd)
	addFormatFlag(configShowCmd, format.JSON)
}
