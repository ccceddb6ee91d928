package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/config"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage CLI context (active agent, conversation, company)",
}

var contextShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the current CLI context",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		ctx := config.LoadContext()
		if ctx.Empty() {
			fmt.Println("No active context set.")
			fmt.Println("\nUse 'knowrithm context set' to set the active agent, conversation, or company.")
			return nil
		}
		out, err := format.RenderTitled(ctx.Snapshot(), f, "Current Context")
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var contextSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set active context items",
}

var contextSetAgentCmd = &cobra.Command{
	Use:   "agent <name-or-id>",
	Short: "Set the active agent by name or ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		agentID, err := newResolver(client).Agent(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		name := args[0]
		if resp, err := client.Get(cmd.Context(), "/api/v1/agent/"+agentID, nil); err == nil {
			if payload, ok := resp.(map[string]any); ok {
				if n, ok := payload["name"].(string); ok && n != "" {
					name = n
				}
			}
		}
		if err := config.LoadContext().SetAgent(agentID, name); err != nil {
			return err
		}
		fmt.Printf("Active agent set to: %s\n", name)
		return nil
	},
}

var contextSetConversationCmd = &cobra.Command{
	Use:   "conversation <title-or-id>",
	Short: "Set the active conversation by title or ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		conversationID, err := newResolver(client).Conversation(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := config.LoadContext().SetConversation(conversationID, args[0]); err != nil {
			return err
		}
		fmt.Printf("Active conversation set to: %s\n", args[0])
		return nil
	},
}

var contextSetCompanyCmd = &cobra.Command{
	Use:   "company <name-or-id>",
	Short: "Set the active company by name or ID (super admin)",
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
		name := args[0]
		if resp, err := client.Get(cmd.Context(), "/api/v1/company/"+companyID, &api.RequestOptions{Auth: api.AuthJWT}); err == nil {
			if payload, ok := resp.(map[string]any); ok {
				if n, ok := payload["name"].(string); ok && n != "" {
					name = n
				}
			}
		}
		if err := config.LoadContext().SetCompany(companyID, name); err != nil {
			return err
		}
		fmt.Printf("Active company set to: %s\n", name)
		return nil
	},
}

var contextClearCmd = &cobra.Command{
	Use:       "clear [agent|conversation|company|all]",
	Short:     "Clear context items (everything when no argument is given)",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"agent", "conversation", "company", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "all"
		if len(args) == 1 {
			target = args[0]
		}
		ctx := config.LoadContext()
		var err error
		switch target {
		case "agent":
			err = ctx.ClearAgent()
		case "conversation":
			err = ctx.ClearConversation()
		case "company":
			err = ctx.ClearCompany()
		case "all":
			err = ctx.ClearAll()
		default:
			return fmt.Errorf("unknown context item %q", target)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %s context.\n", target)
		return nil
	},
}

var contextCacheClearCmd = &cobra.Command{
	Use:       "cache-clear [category]",
	Short:     "Clear the name resolution cache (one category or everything)",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{config.CacheAgents, config.CacheConversations, config.CacheDatabases, config.CacheCompanies},
	RunE: func(cmd *cobra.Command, args []string) error {
		category := ""
		if len(args) == 1 {
			category = args[0]
		}
		if err := config.LoadNameCache().Clear(category); err != nil {
			return err
		}
		if category == "" {
			fmt.Println("Cleared name cache.")
		} else {
			fmt.Printf("Cleared %s from the name cache.\n", category)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.AddCommand(contextShowCmd)
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextClearCmd)
	contextCmd.AddCommand(contextCacheClearCmd)
	contextSetCmd.AddCommand(contextSetAgentCmd)
	contextSetCmd.AddCommand(contextSetConversationCmd)
	contextSetCmd.AddCommand(contextSetCompanyCmd)
	addFormatFlag(contextShowCmd, format.Tree)
}
