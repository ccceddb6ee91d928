package cmd

import (
	"errors"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var databaseCmd = &cobra.Command{
	Use:   "database",
	Short: "Manage database connections",
}

// databaseConnGet resolves a connection name-or-ID and fetches a
// subresource under it.
func databaseConnGet(cmd *cobra.Command, args []string, suffix string, params url.Values) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	connectionID, err := newResolver(client).Database(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return fetchAndPrint(cmd, "/api/v1/database-connection/"+connectionID+suffix, params)
}

// databaseConnDo resolves a connection and issues a write request,
// following task envelopes when the command carries wait flags.
func databaseConnDo(cmd *cobra.Command, connectionArg, method, suffix string, body map[string]any) error {
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
	path := "/api/v1/database-connection"
	if connectionArg != "" {
		connectionID, err := newResolver(client).Database(cmd.Context(), connectionArg)
		if err != nil {
			return err
		}
		path += "/" + connectionID
	}
	path += suffix
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

func payloadFlagBody(cmd *cobra.Command, required bool) (map[string]any, error) {
	payload, _ := cmd.Flags().GetString("payload")
	body, err := objectPayload(payload)
	if err != nil {
		return nil, err
	}
	if required && body == nil {
		return nil, errors.New("this command requires a JSON object payload")
	}
	return body, nil
}

var databaseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List database connections owned by the user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/database-connection", nil)
	},
}

var databaseDeletedCmd = &cobra.Command{
	Use:   "deleted",
	Short: "List deleted connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/database-connection/deleted", nil)
	},
}

var databaseCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new database connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return databaseConnDo(cmd, "", "POST", "", body)
	},
}

var databaseGetCmd = &cobra.Command{
	Use:   "get <connection>",
	Short: "Get details for a connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseConnGet(cmd, args, "", nil)
	},
}

var databaseDeleteCmd = &cobra.Command{
	Use:   "delete <connection>",
	Short: "Soft delete a connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseConnDo(cmd, args[0], "DELETE", "", nil)
	},
}

var databaseRestoreCmd = &cobra.Command{
	Use:   "restore <connection>",
	Short: "Restore a deleted connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseConnDo(cmd, args[0], "PATCH", "/restore", nil)
	},
}

var databaseTestCmd = &cobra.Command{
	Use:   "test <connection>",
	Short: "Test a database connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseConnDo(cmd, args[0], "POST", "/test", nil)
	},
}

var databaseAnalyzeCmd = &cobra.Command{
	Use:   "analyze <connection>",
	Short: "Queue semantic analysis for a connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseConnDo(cmd, args[0], "POST", "/analyze", nil)
	},
}

var databaseAnalyzeAllCmd = &cobra.Command{
	Use:   "analyze-all",
	Short: "Analyze all active connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, false)
		if err != nil {
			return err
		}
		return databaseConnDo(cmd, "", "POST", "/analyze", body)
	},
}

var databaseTablesCmd = &cobra.Command{
	Use:   "tables <connection>",
	Short: "List table metadata for a connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseConnGet(cmd, args, "/table", pageParams(cmd))
	},
}

var databaseTableCmd = &cobra.Command{
	Use:   "table <table-id>",
	Short: "Retrieve metadata for a single table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/database-connection/table/"+url.PathEscape(args[0]), nil)
	},
}

var databaseTableDeleteCmd = &cobra.Command{
	Use:   "table-delete <table-id>",
	Short: "Delete table metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return documentMutation(cmd, "DELETE", "/api/v1/database-connection/table/"+url.PathEscape(args[0]))
	},
}

var databaseTableRestoreCmd = &cobra.Command{
	Use:   "table-restore <table-id>",
	Short: "Restore a deleted table metadata record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return documentMutation(cmd, "PATCH", "/api/v1/database-connection/table/"+url.PathEscape(args[0])+"/restore")
	},
}

var databaseSemanticSnapshotCmd = &cobra.Command{
	Use:   "semantic-snapshot <connection>",
	Short: "Retrieve the semantic snapshot for a connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseConnGet(cmd, args, "/semantic-snapshot", nil)
	},
}

var databaseKnowledgeGraphCmd = &cobra.Command{
	Use:   "knowledge-graph <connection>",
	Short: "Retrieve the knowledge graph for a connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseConnGet(cmd, args, "/knowledge-graph", nil)
	},
}

var databaseSampleQueriesCmd = &cobra.Command{
	Use:   "sample-queries <connection>",
	Short: "Retrieve generated sample queries for a connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseConnGet(cmd, args, "/sample-queries", nil)
	},
}

var databaseTextToSQLCmd = &cobra.Command{
	Use:   "text-to-sql <connection>",
	Short: "Generate SQL from natural language",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return databaseConnDo(cmd, args[0], "POST", "/text-to-sql", body)
	},
}

var databaseExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export database content to documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return databaseConnDo(cmd, "", "POST", "/export", body)
	},
}

func init() {
	rootCmd.AddCommand(databaseCmd)

	for _, c := range []*cobra.Command{
		databaseListCmd, databaseDeletedCmd, databaseCreateCmd, databaseGetCmd,
		databaseDeleteCmd, databaseRestoreCmd, databaseTestCmd,
		databaseAnalyzeCmd, databaseAnalyzeAllCmd,
		databaseTablesCmd, databaseTableCmd, databaseTableDeleteCmd, databaseTableRestoreCmd,
		databaseSemanticSnapshotCmd, databaseKnowledgeGraphCmd, databaseSampleQueriesCmd,
		databaseTextToSQLCmd, databaseExportCmd,
	} {
		databaseCmd.AddCommand(c)
		addAuthFlag(c)
	}

	addFormatFlag(databaseListCmd, format.Table)
	addFormatFlag(databaseDeletedCmd, format.Table)
	addFormatFlag(databaseTablesCmd, format.Table)
	for _, c := range []*cobra.Command{
		databaseCreateCmd, databaseGetCmd, databaseDeleteCmd, databaseRestoreCmd,
		databaseTestCmd, databaseAnalyzeCmd, databaseAnalyzeAllCmd,
		databaseTableCmd, databaseTableDeleteCmd, databaseTableRestoreCmd,
		databaseSemanticSnapshotCmd, databaseKnowledgeGraphCmd, databaseSampleQueriesCmd,
		databaseTextToSQLCmd, databaseExportCmd,
	} {
		addFormatFlag(c, format.JSON)
	}

	databaseCreateCmd.Flags().String("payload", "", "JSON payload describing the connection")
	databaseAnalyzeAllCmd.Flags().String("payload", "", "Optional JSON payload with filters")
	databaseTextToSQLCmd.Flags().String("payload", "", "JSON payload with the natural language question")
	databaseExportCmd.Flags().String("payload", "", "JSON payload with connection_id and options")

	addPageFlags(databaseTablesCmd, 50)
	addWaitFlags(databaseAnalyzeCmd, false)
	addWaitFlags(databaseAnalyzeAllCmd, false)
	addWaitFlags(databaseExportCmd, false)
}
