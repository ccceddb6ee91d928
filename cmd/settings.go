package cmd

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage LLM and embedding settings",
}

// settingsDo issues a settings write request and follows task
// envelopes.
func settingsDo(cmd *cobra.Command, method, path string, body map[string]any) error {
	mode, err := authMode(cmd)
	if err != nil {
		return err
	}
	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	var requestBody any
	if body != nil {
		requestBody = body
	}
	resp, err := client.Do(cmd.Context(), method, path, &api.RequestOptions{Body: requestBody, Auth: mode})
	if err != nil {
		return err
	}
	if resp, err = awaitTask(cmd, client, resp); err != nil {
		return err
	}
	return printResult(cmd, resp, f)
}

var settingsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create LLM settings via provider/model IDs",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return settingsDo(cmd, "POST", "/api/v1/settings", body)
	},
}

var settingsCreateSDKCmd = &cobra.Command{
	Use:   "create-sdk",
	Short: "Create settings using provider/model names (SDK endpoint)",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return settingsDo(cmd, "POST", "/api/v1/sdk/settings", body)
	},
}

var settingsListCompanyCmd = &cobra.Command{
	Use:   "list-company <company>",
	Short: "List settings for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		companyID, err := newResolver(client).Company(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return fetchAndPrint(cmd, "/api/v1/settings/company/"+companyID, nil)
	},
}

var settingsListAgentCmd = &cobra.Command{
	Use:   "list-agent [agent]",
	Short: "List settings for a given agent",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		agentID, err := resolveAgentArg(cmd, client, args)
		if err != nil {
			return err
		}
		return fetchAndPrint(cmd, "/api/v1/settings/agent/"+agentID, nil)
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <settings-id>",
	Short: "Retrieve a settings record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/settings/"+url.PathEscape(args[0]), nil)
	},
}

var settingsUpdateCmd = &cobra.Command{
	Use:   "update <settings-id>",
	Short: "Update an LLM settings record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return settingsDo(cmd, "PUT", "/api/v1/settings/"+url.PathEscape(args[0]), body)
	},
}

var settingsDeleteCmd = &cobra.Command{
	Use:   "delete <settings-id>",
	Short: "Delete an LLM settings record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return settingsDo(cmd, "DELETE", "/api/v1/settings/"+url.PathEscape(args[0]), nil)
	},
}

var settingsTestCmd = &cobra.Command{
	Use:   "test <settings-id>",
	Short: "Validate settings by executing a test call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, false)
		if err != nil {
			return err
		}
		return settingsDo(cmd, "POST", "/api/v1/settings/test/"+url.PathEscape(args[0]), body)
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)

	for _, c := range []*cobra.Command{
		settingsCreateCmd, settingsCreateSDKCmd, settingsListCompanyCmd,
		settingsListAgentCmd, settingsGetCmd, settingsUpdateCmd,
		settingsDeleteCmd, settingsTestCmd,
	} {
		settingsCmd.AddCommand(c)
		addAuthFlag(c)
		addFormatFlag(c, format.JSON)
	}

	settingsCreateCmd.Flags().String("payload", "", "JSON payload for settings creation")
	settingsCreateSDKCmd.Flags().String("payload", "", "JSON payload using provider/model names")
	settingsUpdateCmd.Flags().String("payload", "", "JSON payload with updated fields")
	settingsTestCmd.Flags().String("payload", "", "Optional JSON payload with overrides")

	addWaitFlags(settingsCreateCmd, true)
	addWaitFlags(settingsCreateSDKCmd, true)
	addWaitFlags(settingsUpdateCmd, true)
	addWaitFlags(settingsDeleteCmd, false)
	addWaitFlags(settingsTestCmd, true)
}
