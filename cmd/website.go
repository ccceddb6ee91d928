package cmd

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var websiteCmd = &cobra.Command{
	Use:   "website",
	Short: "Manage website sources and crawling",
}

// websiteDo issues a website source write request, following task
// envelopes when the command carries wait flags.
func websiteDo(cmd *cobra.Command, method, path string, body map[string]any) error {
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
	if cmd.Flags().Lookup("wait") != nil {
		if resp, err = awaitTask(cmd, client, resp); err != nil {
			return err
		}
	}
	return printResult(cmd, resp, f)
}

var websiteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List website sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if v, _ := cmd.Flags().GetString("agent-id"); v != "" {
			params.Set("agent_id", v)
		}
		return fetchAndPrint(cmd, "/api/v1/website/source", params)
	},
}

var websiteAgentCmd = &cobra.Command{
	Use:   "agent [agent]",
	Short: "List website sources for an agent",
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
		return fetchAndPrint(cmd, "/api/v1/website/agent/"+agentID+"/sources", nil)
	},
}

var websiteGetCmd = &cobra.Command{
	Use:   "get <source-id>",
	Short: "Retrieve a website source by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/website/"+url.PathEscape(args[0]), nil)
	},
}

var websiteCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new website source",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return websiteDo(cmd, "POST", "/api/v1/website/source", body)
	},
}

var websiteUpdateCmd = &cobra.Command{
	Use:   "update <source-id>",
	Short: "Update a website source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return websiteDo(cmd, "PUT", "/api/v1/website/source/"+url.PathEscape(args[0]), body)
	},
}

var websiteDeleteCmd = &cobra.Command{
	Use:   "delete <source-id>",
	Short: "Delete a website source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return websiteDo(cmd, "DELETE", "/api/v1/website/source/"+url.PathEscape(args[0]), nil)
	},
}

var websiteCrawlCmd = &cobra.Command{
	Use:   "crawl <source-id>",
	Short: "Trigger a crawl job for a website source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, false)
		if err != nil {
			return err
		}
		return websiteDo(cmd, "POST", "/api/v1/website/source/"+url.PathEscape(args[0])+"/crawl", body)
	},
}

var websitePagesCmd = &cobra.Command{
	Use:   "pages <source-id>",
	Short: "List pages discovered for a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/website/source/"+url.PathEscape(args[0])+"/pages", nil)
	},
}

var websiteHandshakeCmd = &cobra.Command{
	Use:   "handshake",
	Short: "Call the widget handshake endpoint (unauthenticated)",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Post(cmd.Context(), "/api/v1/website/handshake", &api.RequestOptions{Body: body, Auth: api.AuthNone})
		if err != nil {
			return err
		}
		return printResult(cmd, resp, f)
	},
}

func init() {
	rootCmd.AddCommand(websiteCmd)

	websiteCmd.AddCommand(websiteHandshakeCmd)
	for _, c := range []*cobra.Command{
		websiteListCmd, websiteAgentCmd, websiteGetCmd, websiteCreateCmd,
		websiteUpdateCmd, websiteDeleteCmd, websiteCrawlCmd, websitePagesCmd,
	} {
		websiteCmd.AddCommand(c)
		addAuthFlag(c)
	}

	websiteListCmd.Flags().String("agent-id", "", "Filter by agent ID")
	addFormatFlag(websiteListCmd, format.Table)
	addFormatFlag(websiteAgentCmd, format.Table)
	addFormatFlag(websitePagesCmd, format.Table)
	for _, c := range []*cobra.Command{
		websiteGetCmd, websiteCreateCmd, websiteUpdateCmd,
		websiteDeleteCmd, websiteCrawlCmd, websiteHandshakeCmd,
	} {
		addFormatFlag(c, format.JSON)
	}

	websiteCreateCmd.Flags().String("payload", "", "JSON payload describing the source")
	websiteUpdateCmd.Flags().String("payload", "", "JSON payload with updates")
	websiteCrawlCmd.Flags().String("payload", "", "Optional JSON payload (e.g. max_pages)")
	websiteHandshakeCmd.Flags().String("payload", "", "JSON payload describing the widget handshake")

	addWaitFlags(websiteDeleteCmd, false)
	addWaitFlags(websiteCrawlCmd, false)
}
