package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/chat"
	"github.com/Knowrithm/knowrithm-cli/config"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var conversationCmd = &cobra.Command{
	Use:   "conversation",
	Short: "Manage conversations and messages",
}

func resolveConversationArg(cmd *cobra.Command, client *api.Client, args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		if ctx := config.LoadContext(); ctx.ConversationID != "" {
			return ctx.ConversationID, nil
		}
		return "", errors.New("no conversation given and no active conversation in context; run `knowrithm context set conversation <title>`")
	}
	return newResolver(client).Conversation(cmd.Context(), args[0])
}

var conversationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List company conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/conversation", pageParams(cmd))
	},
}

var conversationEntityCmd = &cobra.Command{
	Use:   "entity",
	Short: "List conversations scoped to the current entity or a provided ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := pageParams(cmd)
		if v, _ := cmd.Flags().GetString("status"); v != "" {
			params.Set("status", v)
		}
		if v, _ := cmd.Flags().GetString("entity-type"); v != "" {
			params.Set("entity_type", v)
		}
		path := "/api/v1/conversation/entity"
		if entityID, _ := cmd.Flags().GetString("entity-id"); entityID != "" {
			path += "/" + url.PathEscape(entityID)
		}
		return fetchAndPrint(cmd, path, params)
	},
}

var conversationAgentCmd = &cobra.Command{
	Use:   "agent [agent]",
	Short: "List conversations for a specific agent",
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
		params := pageParams(cmd)
		if v, _ := cmd.Flags().GetString("status"); v != "" {
			params.Set("status", v)
		}
		return fetchAndPrint(cmd, "/api/v1/conversation/agent/"+agentID, params)
	},
}

var conversationCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := authMode(cmd)
		if err != nil {
			return err
		}
		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		payload, _ := cmd.Flags().GetString("payload")
		body, err := objectPayload(payload)
		if err != nil {
			return err
		}
		if body == nil {
			return errors.New("conversation creation requires a JSON object payload")
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Post(cmd.Context(), "/api/v1/conversation", &api.RequestOptions{Body: body, Auth: mode})
		if err != nil {
			return err
		}
		if resp, err = awaitTask(cmd, client, resp); err != nil {
			return err
		}
		return printResult(cmd, resp, f)
	},
}

var conversationMessagesCmd = &cobra.Command{
	Use:   "messages [conversation]",
	Short: "Retrieve messages for a conversation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		conversationID, err := resolveConversationArg(cmd, client, args)
		if err != nil {
			return err
		}
		resp, err := client.Get(cmd.Context(), "/api/v1/conversation/"+conversationID+"/messages",
			&api.RequestOptions{Params: pageParams(cmd), Auth: mode})
		if err != nil {
			return err
		}
		messages := extractMessages(resp)
		if f == format.Table && len(messages) > 0 {
			printTranscript(cmd.OutOrStdout(), messages)
			return nil
		}
		return printResult(cmd, resp, f)
	},
}

var conversationChatCmd = &cobra.Command{
	Use:   "chat [conversation]",
	Short: "Send a chat message into a conversation",
	Long: `Send a chat message into a conversation.

Examples:
  knowrithm conversation chat <id> --message "Hello"
  knowrithm conversation chat <id> --payload '{"message": "Hello"}'
  knowrithm conversation chat <id> --interactive`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := authMode(cmd)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		conversationID, err := resolveConversationArg(cmd, client, args)
		if err != nil {
			return err
		}

		if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
			return runInteractiveChat(cmd, client, conversationID, mode)
		}

		message, _ := cmd.Flags().GetString("message")
		payload, _ := cmd.Flags().GetString("payload")
		var body map[string]any
		switch {
		case message != "":
			body = map[string]any{"message": message}
		case payload != "":
			if body, err = objectPayload(payload); err != nil {
				return err
			}
		default:
			return errors.New("either --message, --payload, or --interactive is required")
		}

		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		resp, err := client.Post(cmd.Context(), "/api/v1/conversation/"+conversationID+"/chat",
			&api.RequestOptions{Body: body, Auth: mode})
		if err != nil {
			return err
		}
		if resp, err = awaitTask(cmd, client, resp); err != nil {
			return err
		}
		if f == format.Table {
			if text := replyText(resp); text != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Assistant:\n\n%s\n", text)
				return nil
			}
		}
		return printResult(cmd, resp, f)
	},
}

var conversationDeleteCmd = &cobra.Command{
	Use:   "delete <conversation>",
	Short: "Soft delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return conversationMutation(cmd, args, "DELETE", "")
	},
}

var conversationRestoreCmd = &cobra.Command{
	Use:   "restore <conversation>",
	Short: "Restore a soft-deleted conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return conversationMutation(cmd, args, "PATCH", "/restore")
	},
}

var conversationDeleteMessagesCmd = &cobra.Command{
	Use:   "delete-messages <conversation>",
	Short: "Delete all messages for a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return conversationMutation(cmd, args, "DELETE", "/messages")
	},
}

var conversationRestoreMessagesCmd = &cobra.Command{
	Use:   "restore-messages <conversation>",
	Short: "Restore all messages for a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return conversationMutation(cmd, args, "PATCH", "/message/restore-all")
	},
}

var conversationDeletedCmd = &cobra.Command{
	Use:   "deleted",
	Short: "List soft-deleted conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/conversation/deleted", nil)
	},
}

func conversationMutation(cmd *cobra.Command, args []string, method, suffix string) error {
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
	conversationID, err := resolveConversationArg(cmd, client, args)
	if err != nil {
		return err
	}
	resp, err := client.Do(cmd.Context(), method, "/api/v1/conversation/"+conversationID+suffix,
		&api.RequestOptions{Auth: mode})
	if err != nil {
		return err
	}
	return printResult(cmd, resp, f)
}

// runInteractiveChat loops a prompt/reply session until the user quits.
func runInteractiveChat(cmd *cobra.Command, client *api.Client, conversationID string, mode api.AuthMode) error {
	handler := chat.NewHandler()
	title := conversationID
	if ctx := config.LoadContext(); ctx.ConversationID == conversationID && ctx.ConversationTitle != "" {
		title = ctx.ConversationTitle
	}
	handler.Welcome(title)

	for {
		input, err := handler.Prompt()
		if err != nil {
			if errors.Is(err, io.EOF) {
				handler.Goodbye()
				return nil
			}
			return err
		}
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			handler.Goodbye()
			return nil
		}

		handler.Thinking()
		reply, err := sendChatMessage(cmd, client, conversationID, input, mode)
		if err != nil {
			handler.Error(err)
			continue
		}
		if reply == "" {
			reply = "_The agent returned no reply text. Check `conversation messages` for details._"
		}
		handler.Assistant(reply)
	}
}

// sendChatMessage posts one message, waits out the task, and returns
// the assistant reply text.
func sendChatMessage(cmd *cobra.Command, client *api.Client, conversationID, message string, mode api.AuthMode) (string, error) {
	resp, err := client.Post(cmd.Context(), "/api/v1/conversation/"+conversationID+"/chat",
		&api.RequestOptions{Body: map[string]any{"message": message}, Auth: mode})
	if err != nil {
		return "", err
	}
	taskID := api.TaskID(resp)
	if resp, err = awaitTask(cmd, client, resp); err != nil {
		return "", err
	}

	if taskID != "" {
		// The task result rarely carries the reply, so fetch the tail
		// of the transcript instead.
		params := url.Values{}
		params.Set("per_page", "10")
		history, err := client.Get(cmd.Context(), "/api/v1/conversation/"+conversationID+"/messages",
			&api.RequestOptions{Params: params, Auth: mode})
		if err != nil {
			return "", err
		}
		if reply := latestAssistantMessage(extractMessages(history)); reply != "" {
			return cleanReply(reply), nil
		}
	}
	return cleanReply(replyText(resp)), nil
}

// extractMessages pulls the message list out of the various shapes the
// messages endpoint has used: a top-level list, a data dict, a data
// list, or JSON-encoded data.
func extractMessages(resp any) []map[string]any {
	payload, ok := resp.(map[string]any)
	if !ok {
		return api.ExtractList(resp, "messages")
	}
	switch data := payload["data"].(type) {
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(data), &parsed); err == nil {
			if msgs := api.ExtractList(parsed, "messages"); len(msgs) > 0 {
				return msgs
			}
		}
	case map[string]any:
		if msgs := api.ExtractList(data, "messages"); len(msgs) > 0 {
			return msgs
		}
	case []any:
		return api.ExtractList(data)
	}
	return api.ExtractList(payload, "messages")
}

// latestAssistantMessage returns the content of the most recent
// assistant-role message.
func latestAssistantMessage(messages []map[string]any) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if role, _ := messages[i]["role"].(string); role == "assistant" {
			content, _ := messages[i]["content"].(string)
			return content
		}
	}
	return ""
}

// replyText digs reply text out of a direct (non-task) chat response.
func replyText(resp any) string {
	payload, ok := resp.(map[string]any)
	if !ok {
		return ""
	}
	if reply := latestAssistantMessage(api.ExtractList(payload, "messages")); reply != "" {
		return reply
	}
	candidates := []map[string]any{payload}
	switch data := payload["data"].(type) {
	case map[string]any:
		candidates = append([]map[string]any{data}, candidates...)
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(data), &parsed); err == nil {
			candidates = append([]map[string]any{parsed}, candidates...)
		} else {
			return data
		}
	}
	for _, m := range candidates {
		for _, key := range []string{"response", "message", "content"} {
			if text, _ := m[key].(string); text != "" {
				return text
			}
		}
	}
	return ""
}

var (
	sourceCitations = regexp.MustCompile(`\[Source[^\]]+\]`)
	blankRuns       = regexp.MustCompile(`\n{3,}`)
)

// cleanReply strips inline citation markers and collapses blank runs.
func cleanReply(text string) string {
	text = sourceCitations.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func printTranscript(w io.Writer, messages []map[string]any) {
	fmt.Fprintf(w, "Conversation messages (%d)\n", len(messages))
	fmt.Fprintln(w, strings.Repeat("=", 80))
	for _, msg := range messages {
		role, _ := msg["role"].(string)
		if role == "" {
			role = "unknown"
		}
		content, _ := msg["content"].(string)
		fmt.Fprintf(w, "\n[%s]\n", strings.ToUpper(role[:1])+role[1:])
		if createdAt, _ := msg["created_at"].(string); createdAt != "" {
			fmt.Fprintf(w, "  at: %s\n", createdAt)
		}
		fmt.Fprintf(w, "  %s\n", content)
		if role == "assistant" {
			if model, _ := msg["model_used"].(string); model != "" {
				fmt.Fprintf(w, "  model: %s\n", model)
			}
			if metadata, ok := msg["metadata"].(map[string]any); ok {
				if cited, ok := metadata["cited_sources"].([]any); ok && len(cited) > 0 {
					fmt.Fprintf(w, "  sources: %d citations\n", len(cited))
				}
			}
		}
		fmt.Fprintln(w, strings.Repeat("-", 80))
	}
}

func init() {
	rootCmd.AddCommand(conversationCmd)

	for _, c := range []*cobra.Command{
		conversationListCmd, conversationEntityCmd, conversationAgentCmd,
		conversationCreateCmd, conversationMessagesCmd, conversationChatCmd,
		conversationDeleteCmd, conversationRestoreCmd,
		conversationDeleteMessagesCmd, conversationRestoreMessagesCmd,
		conversationDeletedCmd,
	} {
		conversationCmd.AddCommand(c)
		addAuthFlag(c)
	}

	addPageFlags(conversationListCmd, 20)
	addFormatFlag(conversationListCmd, format.Table)

	conversationEntityCmd.Flags().String("entity-id", "", "Specific entity ID to inspect")
	conversationEntityCmd.Flags().String("entity-type", "", "Filter by entity type (lead/user)")
	conversationEntityCmd.Flags().String("status", "", "Conversation status filter")
	addPageFlags(conversationEntityCmd, 20)
	addFormatFlag(conversationEntityCmd, format.Table)

	conversationAgentCmd.Flags().String("status", "", "Filter by conversation status")
	addPageFlags(conversationAgentCmd, 20)
	addFormatFlag(conversationAgentCmd, format.Table)

	conversationCreateCmd.Flags().String("payload", "", "JSON string or @path for the conversation body")
	addFormatFlag(conversationCreateCmd, format.JSON)
	addWaitFlags(conversationCreateCmd, false)

	addPageFlags(conversationMessagesCmd, 50)
	addFormatFlag(conversationMessagesCmd, format.Table)

	conversationChatCmd.Flags().StringP("message", "m", "", "Quick message text (alternative to --payload)")
	conversationChatCmd.Flags().String("payload", "", "JSON string or @path containing the message body")
	conversationChatCmd.Flags().BoolP("interactive", "i", false, "Interactive chat mode")
	addFormatFlag(conversationChatCmd, format.Table)
	addWaitFlags(conversationChatCmd, true)

	addFormatFlag(conversationDeleteCmd, format.JSON)
	addFormatFlag(conversationRestoreCmd, format.JSON)
	addFormatFlag(conversationDeleteMessagesCmd, format.JSON)
	addFormatFlag(conversationRestoreMessagesCmd, format.JSON)
	addFormatFlag(conversationDeletedCmd, format.Table)
}
