package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands for user and system management",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage system users",
}

// fetchFirst tries each path in order and returns the first successful
// response. The deployed platforms expose these endpoints under
// different prefixes.
func fetchFirst(ctx context.Context, client *api.Client, paths []string, params url.Values, mode api.AuthMode) (any, error) {
	var lastErr error
	for _, path := range paths {
		resp, err := client.Get(ctx, path, &api.RequestOptions{Params: params, Auth: mode})
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

var adminUsersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List system users",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := authMode(cmd)
		if err != nil {
			return err
		}
		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		params := pageParams(cmd)
		if v, _ := cmd.Flags().GetString("role"); v != "" {
			params.Set("role", v)
		}
		if v, _ := cmd.Flags().GetString("status"); v != "" {
			params.Set("status", v)
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := fetchFirst(cmd.Context(), client, []string{
			"/api/v1/admin/users",
			"/api/v1/users",
			"/api/v1/company/users",
			"/api/v1/auth/users",
			"/api/v1/super-admin/users",
		}, params, mode)
		if err != nil {
			return err
		}
		return printResult(cmd, resp, f)
	},
}

var adminAuditLogCmd = &cobra.Command{
	Use:   "audit-log",
	Short: "View system audit logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := authMode(cmd)
		if err != nil {
			return err
		}
		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		params := pageParams(cmd)
		for flag, param := range map[string]string{
			"user-id":     "user_id",
			"action":      "action",
			"entity-type": "entity_type",
			"risk-level":  "risk_level",
			"start-date":  "start_date",
			"end-date":    "end_date",
		} {
			if v, _ := cmd.Flags().GetString(flag); v != "" {
				params.Set(param, v)
			}
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := fetchFirst(cmd.Context(), client, []string{
			"/api/v1/admin/audit-log",
			"/api/v1/audit-log",
		}, params, mode)
		if err != nil {
			return err
		}
		logs := extractAuditLogs(resp)
		if f == format.Table && len(logs) > 0 {
			printAuditTimeline(cmd.OutOrStdout(), logs)
			return nil
		}
		return printResult(cmd, resp, f)
	},
}

var adminMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "View system metrics and statistics",
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
		resp, err := fetchFirst(cmd.Context(), client, []string{
			"/api/v1/admin/metrics",
			"/api/v1/system/metrics",
			"/api/v1/metrics",
		}, nil, mode)
		if err != nil {
			return err
		}
		return printResult(cmd, resp, f)
	},
}

// extractAuditLogs tolerates the shapes the audit endpoints return:
// top-level lists, logs/audit_logs keys, or a JSON-encoded data field.
func extractAuditLogs(resp any) []map[string]any {
	payload, ok := resp.(map[string]any)
	if !ok {
		return api.ExtractList(resp, "logs", "audit_logs")
	}
	if data, ok := payload["data"].(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(data), &parsed); err == nil {
			if logs := api.ExtractList(parsed, "logs", "audit_logs"); len(logs) > 0 {
				return logs
			}
		}
	}
	return api.ExtractList(payload, "logs", "audit_logs")
}

func printAuditTimeline(w io.Writer, logs []map[string]any) {
	fmt.Fprintf(w, "Audit log (%d entries)\n", len(logs))
	fmt.Fprintln(w, strings.Repeat("=", 100))
	for _, entry := range logs {
		action := firstString(entry, "event_type", "action", "action_type")
		if action == "" {
			action = "unknown"
		}
		fmt.Fprintf(w, "\n%s\n", action)
		if ts := firstString(entry, "timestamp", "created_at"); ts != "" {
			fmt.Fprintf(w, "  at: %s\n", ts)
		}
		if desc := firstString(entry, "description", "message"); desc != "" {
			if len(desc) > 150 {
				desc = desc[:147] + "..."
			}
			fmt.Fprintf(w, "  %s\n", desc)
		}
		var details []string
		if v := firstString(entry, "entity", "user_role"); v != "" {
			details = append(details, "entity: "+v)
		}
		if v := firstString(entry, "event_category", "entity_type"); v != "" {
			details = append(details, "category: "+v)
		}
		if v := firstString(entry, "risk_level"); v != "" {
			details = append(details, "risk: "+v)
		}
		if v := firstString(entry, "ip_address"); v != "" {
			details = append(details, "ip: "+v)
		}
		if len(details) > 0 {
			fmt.Fprintf(w, "  %s\n", strings.Join(details, " | "))
		}
		fmt.Fprintln(w, strings.Repeat("-", 100))
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, _ := m[key].(string); v != "" {
			return v
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminUsersCmd)
	adminUsersCmd.AddCommand(adminUsersListCmd)
	adminCmd.AddCommand(adminAuditLogCmd)
	adminCmd.AddCommand(adminMetricsCmd)

	addAuthFlag(adminUsersListCmd)
	adminUsersListCmd.Flags().String("role", "", "Filter by user role")
	adminUsersListCmd.Flags().String("status", "", "Filter by user status")
	addPageFlags(adminUsersListCmd, 20)
	addFormatFlag(adminUsersListCmd, format.Table)

	addAuthFlag(adminAuditLogCmd)
	adminAuditLogCmd.Flags().String("user-id", "", "Filter by user ID")
	adminAuditLogCmd.Flags().String("action", "", "Filter by action type")
	adminAuditLogCmd.Flags().String("entity-type", "", "Filter by entity type")
	adminAuditLogCmd.Flags().String("risk-level", "", "Filter by risk level")
	adminAuditLogCmd.Flags().String("start-date", "", "Start date for logs")
	adminAuditLogCmd.Flags().String("end-date", "", "End date for logs")
	addPageFlags(adminAuditLogCmd, 20)
	addFormatFlag(adminAuditLogCmd, format.Table)

	addAuthFlag(adminMetricsCmd)
	addFormatFlag(adminMetricsCmd, format.JSON)
}
