package cmd

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var leadCmd = &cobra.Command{
	Use:   "lead",
	Short: "Manage leads and registrations",
}

var leadRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Public lead registration (no authentication required)",
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
		resp, err := client.Post(cmd.Context(), "/api/v1/lead/register", &api.RequestOptions{Body: body, Auth: api.AuthNone})
		if err != nil {
			return err
		}
		return printResult(cmd, resp, f)
	},
}

var leadCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a lead within the authenticated company",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return leadMutation(cmd, "POST", "/api/v1/lead", body)
	},
}

var leadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List company leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := pageParams(cmd)
		if v, _ := cmd.Flags().GetString("status"); v != "" {
			params.Set("status", v)
		}
		if v, _ := cmd.Flags().GetString("search"); v != "" {
			params.Set("search", v)
		}
		return fetchAndPrint(cmd, "/api/v1/lead/company", params)
	},
}

var leadGetCmd = &cobra.Command{
	Use:   "get <lead-id>",
	Short: "Retrieve a specific lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/lead/"+url.PathEscape(args[0]), nil)
	},
}

var leadUpdateCmd = &cobra.Command{
	Use:   "update <lead-id>",
	Short: "Update a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return leadMutation(cmd, "PUT", "/api/v1/lead/"+url.PathEscape(args[0]), body)
	},
}

var leadDeleteCmd = &cobra.Command{
	Use:   "delete <lead-id>",
	Short: "Soft delete a lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return leadMutation(cmd, "DELETE", "/api/v1/lead/"+url.PathEscape(args[0]), nil)
	},
}

func leadMutation(cmd *cobra.Command, method, path string, body map[string]any) error {
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
	return printResult(cmd, resp, f)
}

func init() {
	rootCmd.AddCommand(leadCmd)

	leadCmd.AddCommand(leadRegisterCmd)
	for _, c := range []*cobra.Command{leadCreateCmd, leadListCmd, leadGetCmd, leadUpdateCmd, leadDeleteCmd} {
		leadCmd.AddCommand(c)
		addAuthFlag(c)
	}

	leadRegisterCmd.Flags().String("payload", "", "JSON payload for public lead registration")
	addFormatFlag(leadRegisterCmd, format.JSON)

	leadCreateCmd.Flags().String("payload", "", "JSON payload describing the lead")
	addFormatFlag(leadCreateCmd, format.JSON)

	leadListCmd.Flags().String("status", "", "Filter by lead status")
	leadListCmd.Flags().String("search", "", "Search by name/email")
	addPageFlags(leadListCmd, 20)
	addFormatFlag(leadListCmd, format.Table)

	addFormatFlag(leadGetCmd, format.JSON)

	leadUpdateCmd.Flags().String("payload", "", "JSON payload with fields to update")
	addFormatFlag(leadUpdateCmd, format.JSON)

	addFormatFlag(leadDeleteCmd, format.JSON)
}
