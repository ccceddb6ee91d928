package cmd

import (
	"errors"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage documents and knowledge base entries",
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents for the current company",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/document", pageParams(cmd))
	},
}

var documentAgentCmd = &cobra.Command{
	Use:   "agent [agent]",
	Short: "List documents linked to an agent",
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
		return fetchAndPrint(cmd, "/api/v1/document/agent/"+agentID, pageParams(cmd))
	},
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload documents or initiate scraping tasks",
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

		agentArg, _ := cmd.Flags().GetString("agent-id")
		var agentArgs []string
		if agentArg != "" {
			agentArgs = []string{agentArg}
		}
		agentID, err := resolveAgentArg(cmd, client, agentArgs)
		if err != nil {
			return err
		}

		files, _ := cmd.Flags().GetStringArray("file")
		urls, _ := cmd.Flags().GetStringArray("url")
		payload, _ := cmd.Flags().GetString("payload")
		extra, err := objectPayload(payload)
		if err != nil {
			return err
		}
		if len(files) == 0 && len(urls) == 0 && extra == nil {
			return errors.New("nothing to upload; pass --file, --url or --payload")
		}

		var resp any
		if len(files) > 0 {
			fields := url.Values{}
			fields.Set("agent_id", agentID)
			for _, u := range urls {
				fields.Add("urls", u)
			}
			for key, value := range extra {
				fields.Add(key, scalarString(value))
			}
			resp, err = client.UploadFiles(cmd.Context(), "/api/v1/document/upload", files, fields, mode)
		} else {
			body := map[string]any{}
			for key, value := range extra {
				body[key] = value
			}
			if _, ok := body["agent_id"]; !ok {
				body["agent_id"] = agentID
			}
			if len(urls) > 0 {
				if _, ok := body["urls"]; !ok {
					body["urls"] = urls
				}
			}
			resp, err = client.Post(cmd.Context(), "/api/v1/document/upload", &api.RequestOptions{Body: body, Auth: mode})
		}
		if err != nil {
			return err
		}
		if resp, err = awaitTask(cmd, client, resp); err != nil {
			return err
		}
		return printResult(cmd, resp, f)
	},
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Soft delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return documentMutation(cmd, "DELETE", "/api/v1/document/"+url.PathEscape(args[0]))
	},
}

var documentRestoreCmd = &cobra.Command{
	Use:   "restore <document-id>",
	Short: "Restore a soft-deleted document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return documentMutation(cmd, "PATCH", "/api/v1/document/"+url.PathEscape(args[0])+"/restore")
	},
}

var documentDeleteChunksCmd = &cobra.Command{
	Use:   "delete-chunks <document-id>",
	Short: "Delete all chunks for a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return documentMutation(cmd, "DELETE", "/api/v1/document/"+url.PathEscape(args[0])+"/chunk")
	},
}

var documentRestoreChunksCmd = &cobra.Command{
	Use:   "restore-chunks <document-id>",
	Short: "Restore all chunks for a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return documentMutation(cmd, "PATCH", "/api/v1/document/"+url.PathEscape(args[0])+"/chunk/restore-all")
	},
}

var documentDeleteChunkCmd = &cobra.Command{
	Use:   "delete-chunk <chunk-id>",
	Short: "Delete a single document chunk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return documentMutation(cmd, "DELETE", "/api/v1/document/chunk/"+url.PathEscape(args[0]))
	},
}

var documentRestoreChunkCmd = &cobra.Command{
	Use:   "restore-chunk <chunk-id>",
	Short: "Restore a single document chunk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return documentMutation(cmd, "PATCH", "/api/v1/document/chunk/"+url.PathEscape(args[0])+"/restore")
	},
}

var documentDeletedCmd = &cobra.Command{
	Use:   "deleted",
	Short: "List deleted documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/document/deleted", nil)
	},
}

var documentDeletedChunksCmd = &cobra.Command{
	Use:   "deleted-chunks",
	Short: "List deleted document chunks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/document/chunk/deleted", nil)
	},
}

var documentBulkDeleteCmd = &cobra.Command{
	Use:   "bulk-delete",
	Short: "Bulk delete documents",
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
			return errors.New("bulk delete requires a JSON payload with document_ids")
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Delete(cmd.Context(), "/api/v1/document/bulk-delete", &api.RequestOptions{Body: body, Auth: mode})
		if err != nil {
			return err
		}
		return printResult(cmd, resp, f)
	},
}

var documentSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run semantic document search",
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
			return errors.New("search requires a JSON payload")
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Post(cmd.Context(), "/api/v1/search/document", &api.RequestOptions{Body: body, Auth: mode})
		if err != nil {
			return err
		}
		return printResult(cmd, resp, f)
	},
}

func documentMutation(cmd *cobra.Command, method, path string) error {
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
	resp, err := client.Do(cmd.Context(), method, path, &api.RequestOptions{Auth: mode})
	if err != nil {
		return err
	}
	return printResult(cmd, resp, f)
}

func init() {
	rootCmd.AddCommand(documentCmd)

	for _, c := range []*cobra.Command{
		documentListCmd, documentAgentCmd, documentUploadCmd,
		documentDeleteCmd, documentRestoreCmd,
		documentDeleteChunksCmd, documentRestoreChunksCmd,
		documentDeleteChunkCmd, documentRestoreChunkCmd,
		documentDeletedCmd, documentDeletedChunksCmd,
		documentBulkDeleteCmd, documentSearchCmd,
	} {
		documentCmd.AddCommand(c)
		addAuthFlag(c)
	}

	addPageFlags(documentListCmd, 20)
	addFormatFlag(documentListCmd, format.Table)
	addPageFlags(documentAgentCmd, 20)
	addFormatFlag(documentAgentCmd, format.Table)

	documentUploadCmd.Flags().String("agent-id", "", "Agent to associate with the upload (defaults to the context agent)")
	documentUploadCmd.Flags().StringArray("file", nil, "File to upload (repeatable)")
	documentUploadCmd.Flags().StringArray("url", nil, "URL to ingest (repeatable)")
	documentUploadCmd.Flags().String("payload", "", "Additional JSON fields for the upload request")
	addFormatFlag(documentUploadCmd, format.JSON)
	addWaitFlags(documentUploadCmd, false)

	for _, c := range []*cobra.Command{
		documentDeleteCmd, documentRestoreCmd,
		documentDeleteChunksCmd, documentRestoreChunksCmd,
		documentDeleteChunkCmd, documentRestoreChunkCmd,
		documentBulkDeleteCmd, documentSearchCmd,
	} {
		addFormatFlag(c, format.JSON)
	}
	addFormatFlag(documentDeletedCmd, format.Table)
	addFormatFlag(documentDeletedChunksCmd, format.Table)

	documentBulkDeleteCmd.Flags().String("payload", "", "JSON payload with document_ids")
	documentSearchCmd.Flags().String("payload", "", "JSON search payload")
}
