package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/config"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage Knowrithm agents",
}

// resolveAgentArg turns an optional name-or-ID argument into an agent
// ID, falling back to the active context agent.
func resolveAgentArg(cmd *cobra.Command, client *api.Client, args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		if ctx := config.LoadContext(); ctx.AgentID != "" {
			return ctx.AgentID, nil
		}
		return "", errors.New("no agent given and no active agent in context; run `knowrithm context set agent <name>`")
	}
	return newResolver(client).Agent(cmd.Context(), args[0])
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents for the authenticated company",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := pageParams(cmd)
		for flag, param := range map[string]string{
			"company-id": "company_id",
			"status":     "status",
			"search":     "search",
		} {
			if v, _ := cmd.Flags().GetString(flag); v != "" {
				params.Set(param, v)
			}
		}
		return fetchAndPrint(cmd, "/api/v1/agent", params)
	},
}

var agentGetCmd = &cobra.Command{
	Use:   "get [agent]",
	Short: "Retrieve a specific agent by name or ID",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return agentSubresource(cmd, args, "")
	},
}

var agentStatsCmd = &cobra.Command{
	Use:   "stats [agent]",
	Short: "Retrieve statistics for an agent",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return agentSubresource(cmd, args, "/stats")
	},
}

var agentEmbedCodeCmd = &cobra.Command{
	Use:   "embed-code [agent]",
	Short: "Fetch widget embed code for an agent",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return agentSubresource(cmd, args, "/embed-code")
	},
}

func agentSubresource(cmd *cobra.Command, args []string, suffix string) error {
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
	agentID, err := resolveAgentArg(cmd, client, args)
	if err != nil {
		return err
	}
	resp, err := client.Get(cmd.Context(), "/api/v1/agent/"+agentID+suffix, &api.RequestOptions{Auth: mode})
	if err != nil {
		return err
	}
	return printResult(cmd, resp, f)
}

var agentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _ := cmd.Flags().GetString("payload")
		body, err := objectPayload(payload)
		if err != nil {
			return err
		}
		if body == nil {
			return errors.New("agent creation requires a JSON object payload")
		}
		return agentMutation(cmd, nil, "POST", "", body)
	},
}

var agentCloneCmd = &cobra.Command{
	Use:   "clone <agent>",
	Short: "Clone an existing agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _ := cmd.Flags().GetString("payload")
		body, err := objectPayload(payload)
		if err != nil {
			return err
		}
		return agentMutation(cmd, args, "POST", "/clone", body)
	},
}

var agentUpdateCmd = &cobra.Command{
	Use:   "update <agent>",
	Short: "Update an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _ := cmd.Flags().GetString("payload")
		body, err := objectPayload(payload)
		if err != nil {
			return err
		}
		if body == nil {
			return errors.New("agent update requires a JSON object payload")
		}
		return agentMutation(cmd, args, "PUT", "", body)
	},
}

var agentDeleteCmd = &cobra.Command{
	Use:   "delete <agent>",
	Short: "Soft delete an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return agentMutation(cmd, args, "DELETE", "", nil)
	},
}

var agentRestoreCmd = &cobra.Command{
	Use:   "restore <agent>",
	Short: "Restore a soft-deleted agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return agentMutation(cmd, args, "PATCH", "/restore", nil)
	},
}

var agentTestCmd = &cobra.Command{
	Use:   "test [agent]",
	Short: "Run a test query against an agent",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _ := cmd.Flags().GetString("payload")
		body, err := objectPayload(payload)
		if err != nil {
			return err
		}
		return agentMutation(cmd, args, "POST", "/test", body)
	},
}

// agentMutation handles the write endpoints, which may answer with a
// task envelope.
func agentMutation(cmd *cobra.Command, args []string, method, suffix string, body map[string]any) error {
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

	path := "/api/v1/agent"
	if method != "POST" || suffix != "" {
		agentID, err := resolveAgentArg(cmd, client, args)
		if err != nil {
			return err
		}
		path += "/" + agentID + suffix
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

func init() {
	rootCmd.AddCommand(agentCmd)

	agentListCmd.Flags().String("company-id", "", "Filter by company ID (super admin only)")
	agentListCmd.Flags().String("status", "", "Filter by agent status")
	agentListCmd.Flags().String("search", "", "Search string for name/description")
	addPageFlags(agentListCmd, 20)

	for _, c := range []*cobra.Command{
		agentListCmd, agentGetCmd, agentCreateCmd, agentCloneCmd, agentUpdateCmd,
		agentDeleteCmd, agentRestoreCmd, agentStatsCmd, agentTestCmd, agentEmbedCodeCmd,
	} {
		agentCmd.AddCommand(c)
		addAuthFlag(c)
	}
	addFormatFlag(agentListCmd, format.Table)
	for _, c := range []*cobra.Command{
		agentGetCmd, agentCreateCmd, agentCloneCmd, agentUpdateCmd,
		agentDeleteCmd, agentRestoreCmd, agentStatsCmd, agentTestCmd, agentEmbedCodeCmd,
	} {
		addFormatFlag(c, format.JSON)
	}

	agentCreateCmd.Flags().String("payload", "", "JSON string or @path describing the agent")
	agentCloneCmd.Flags().String("payload", "", "Optional JSON overrides for the cloned agent")
	agentUpdateCmd.Flags().String("payload", "", "JSON string or @path with update fields")
	agentTestCmd.Flags().String("payload", "", "Optional JSON test payload")

	addWaitFlags(agentCreateCmd, true)
	addWaitFlags(agentCloneCmd, true)
	addWaitFlags(agentUpdateCmd, true)
	addWaitFlags(agentDeleteCmd, false)
	addWaitFlags(agentRestoreCmd, false)
	addWaitFlags(agentTestCmd, true)
}
