package cmd

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage tenant/company resources",
}

// companyDo resolves a company name-or-ID and issues a request against
// its resource path.
func companyDo(cmd *cobra.Command, companyArg, method, suffix string, body map[string]any) error {
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
	path := "/api/v1/company"
	if companyArg != "" {
		companyID, err := newResolver(client).Company(cmd.Context(), companyArg)
		if err != nil {
			return err
		}
		path += "/" + companyID
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
	return printResult(cmd, resp, f)
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies (super admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/super-admin/company", pageParams(cmd))
	},
}

var companyCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Retrieve the authenticated company",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/company", nil)
	},
}

var companyGetCmd = &cobra.Command{
	Use:   "get <company>",
	Short: "Retrieve a specific company by name or ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return companyDo(cmd, args[0], "GET", "", nil)
	},
}

var companyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a company (public onboarding)",
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
		resp, err := client.Post(cmd.Context(), "/api/v1/company", &api.RequestOptions{Body: body, Auth: api.AuthNone})
		if err != nil {
			return err
		}
		return printResult(cmd, resp, f)
	},
}

var companyUpdateCmd = &cobra.Command{
	Use:   "update <company>",
	Short: "Update company metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return companyDo(cmd, args[0], "PUT", "", body)
	},
}

var companyPatchCmd = &cobra.Command{
	Use:   "patch <company>",
	Short: "Partially update a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return companyDo(cmd, args[0], "PATCH", "", body)
	},
}

var companyDeleteCmd = &cobra.Command{
	Use:   "delete <company>",
	Short: "Soft delete a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return companyDo(cmd, args[0], "DELETE", "", nil)
	},
}

var companyRestoreCmd = &cobra.Command{
	Use:   "restore <company>",
	Short: "Restore a soft-deleted company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return companyDo(cmd, args[0], "PATCH", "/restore", nil)
	},
}

var companyDeletedCmd = &cobra.Command{
	Use:   "deleted",
	Short: "List deleted companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/company/deleted", nil)
	},
}

var companyBulkDeleteCmd = &cobra.Command{
	Use:   "bulk-delete",
	Short: "Bulk delete companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return companyDo(cmd, "", "DELETE", "/bulk-delete", body)
	},
}

var companyBulkRestoreCmd = &cobra.Command{
	Use:   "bulk-restore",
	Short: "Bulk restore companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, true)
		if err != nil {
			return err
		}
		return companyDo(cmd, "", "PATCH", "/bulk-restore", body)
	},
}

var companyStatisticsCmd = &cobra.Command{
	Use:   "statistics [company]",
	Short: "Retrieve lead statistics for a company",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if days, _ := cmd.Flags().GetInt("days"); days > 0 {
			params.Set("days", strconv.Itoa(days))
		}
		path := "/api/v1/company/statistics"
		if len(args) == 1 {
			client, err := newClient()
			if err != nil {
				return err
			}
			companyID, err := newResolver(client).Company(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			path = "/api/v1/company/" + companyID + "/statistics"
		}
		return fetchAndPrint(cmd, path, params)
	},
}

var companyRelatedDataCmd = &cobra.Command{
	Use:   "related-data <company>",
	Short: "Inspect related data counts before deletion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return companyDo(cmd, args[0], "GET", "/related-data", nil)
	},
}

var companyCascadeDeleteCmd = &cobra.Command{
	Use:   "cascade-delete <company>",
	Short: "Trigger cascade deletion for a company (super admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := payloadFlagBody(cmd, false)
		if err != nil {
			return err
		}
		return companyDo(cmd, args[0], "DELETE", "/cascade-delete", body)
	},
}

func init() {
	rootCmd.AddCommand(companyCmd)

	companyCmd.AddCommand(companyCreateCmd)
	for _, c := range []*cobra.Command{
		companyListCmd, companyCurrentCmd, companyGetCmd, companyUpdateCmd,
		companyPatchCmd, companyDeleteCmd, companyRestoreCmd, companyDeletedCmd,
		companyBulkDeleteCmd, companyBulkRestoreCmd, companyStatisticsCmd,
		companyRelatedDataCmd, companyCascadeDeleteCmd,
	} {
		companyCmd.AddCommand(c)
		addAuthFlag(c)
	}

	addPageFlags(companyListCmd, 20)
	addFormatFlag(companyListCmd, format.Table)
	addFormatFlag(companyDeletedCmd, format.Table)
	for _, c := range []*cobra.Command{
		companyCurrentCmd, companyGetCmd, companyCreateCmd, companyUpdateCmd,
		companyPatchCmd, companyDeleteCmd, companyRestoreCmd,
		companyBulkDeleteCmd, companyBulkRestoreCmd, companyStatisticsCmd,
		companyRelatedDataCmd, companyCascadeDeleteCmd,
	} {
		addFormatFlag(c, format.JSON)
	}

	companyCreateCmd.Flags().String("payload", "", "JSON payload or @path describing the company")
	companyUpdateCmd.Flags().String("payload", "", "JSON payload with updates")
	companyPatchCmd.Flags().String("payload", "", "JSON payload with partial update fields")
	companyBulkDeleteCmd.Flags().String("payload", "", "JSON payload with company_ids")
	companyBulkRestoreCmd.Flags().String("payload", "", "JSON payload with company_ids")
	companyCascadeDeleteCmd.Flags().String("payload", "", "Optional JSON payload with cascade options")
	companyStatisticsCmd.Flags().Int("days", 0, "Number of days to include")
}
