package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Access analytics dashboards and exports",
}

func dateRangeParams(cmd *cobra.Command) url.Values {
	params := url.Values{}
	if v, _ := cmd.Flags().GetString("start-date"); v != "" {
		params.Set("start_date", v)
	}
	if v, _ := cmd.Flags().GetString("end-date"); v != "" {
		params.Set("end_date", v)
	}
	return params
}

var analyticsDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Retrieve the main analytics dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if v, _ := cmd.Flags().GetString("company-id"); v != "" {
			params.Set("company_id", v)
		}
		return fetchSectioned(cmd, "/api/v1/analytic/dashboard", params)
	},
}

var analyticsAgentCmd = &cobra.Command{
	Use:   "agent [agent]",
	Short: "Retrieve analytics for a single agent",
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
		return fetchAndPrint(cmd, "/api/v1/analytic/agent/"+agentID, dateRangeParams(cmd))
	},
}

var analyticsAgentPerformanceCmd = &cobra.Command{
	Use:   "agent-performance [agent]",
	Short: "Compare agent performance to company averages",
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
		return fetchAndPrint(cmd, "/api/v1/analytic/agent/"+agentID+"/performance-comparison", dateRangeParams(cmd))
	},
}

var analyticsConversationCmd = &cobra.Command{
	Use:   "conversation [conversation]",
	Short: "Retrieve analytics for a conversation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		conversationID, err := resolveConversationArg(cmd, client, args)
		if err != nil {
			return err
		}
		return fetchAndPrint(cmd, "/api/v1/analytic/conversation/"+conversationID, nil)
	},
}

var analyticsLeadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Retrieve lead analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := dateRangeParams(cmd)
		if days, _ := cmd.Flags().GetInt("days"); days > 0 {
			end := time.Now()
			start := end.AddDate(0, 0, -days)
			params.Set("start_date", start.Format(time.RFC3339))
			params.Set("end_date", end.Format(time.RFC3339))
		}
		if v, _ := cmd.Flags().GetString("company-id"); v != "" {
			params.Set("company_id", v)
		}
		return fetchSectioned(cmd, "/api/v1/analytic/leads", params)
	},
}

var analyticsUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Retrieve platform usage analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchSectioned(cmd, "/api/v1/analytic/usage", dateRangeParams(cmd))
	},
}

var analyticsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export analytics data",
	Long: `Export analytics data.

Examples:
  knowrithm analytics export --type conversations --export-format csv
  knowrithm analytics export --type leads --export-format json --start-date 2024-01-01
  knowrithm analytics export --payload '{"type": "agents", "format": "csv"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := authMode(cmd)
		if err != nil {
			return err
		}
		body, err := payloadFlagBody(cmd, false)
		if err != nil {
			return err
		}
		if body == nil {
			exportType, _ := cmd.Flags().GetString("type")
			if exportType == "" {
				return errors.New("either --payload or --type is required")
			}
			exportFormat, _ := cmd.Flags().GetString("export-format")
			body = map[string]any{"type": exportType, "format": exportFormat}
			if v, _ := cmd.Flags().GetString("start-date"); v != "" {
				body["start_date"] = v
			}
			if v, _ := cmd.Flags().GetString("end-date"); v != "" {
				body["end_date"] = v
			}
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Post(cmd.Context(), "/api/v1/analytic/export", &api.RequestOptions{Body: body, Auth: mode})
		if err != nil {
			return err
		}
		if resp, err = awaitTask(cmd, client, resp); err != nil {
			return err
		}
		// CSV exports come back as a raw body.
		if payload, ok := resp.(map[string]any); ok && len(payload) == 1 {
			if raw, ok := payload["raw"].(string); ok {
				fmt.Fprintln(cmd.OutOrStdout(), raw)
				return nil
			}
		}
		return printResult(cmd, resp, format.JSON)
	},
}

// fetchSectioned fetches an analytics payload and, for the table
// format, renders each top-level block as its own titled table.
func fetchSectioned(cmd *cobra.Command, path string, params url.Values) error {
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
	resp, err := client.Get(cmd.Context(), path, &api.RequestOptions{Params: params, Auth: mode})
	if err != nil {
		return err
	}
	if f != format.Table {
		return printResult(cmd, resp, f)
	}
	payload, ok := resp.(map[string]any)
	if !ok || len(payload) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No analytics data to display")
		return nil
	}
	printAnalyticsSections(cmd.OutOrStdout(), payload)
	return nil
}

// printAnalyticsSections renders nested analytics blocks as titled
// tables: scalar maps become metric/value rows, lists of objects
// become plain tables.
func printAnalyticsSections(w io.Writer, payload map[string]any) {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var scalars []map[string]any
	first := true
	section := func(title string, rows any) {
		if !first {
			fmt.Fprintln(w)
		}
		first = false
		fmt.Fprintf(w, "== %s ==\n", title)
		out, err := format.Render(rows, format.Table)
		if err != nil {
			return
		}
		fmt.Fprintln(w, strings.TrimRight(out, "\n"))
	}

	for _, key := range keys {
		switch value := payload[key].(type) {
		case map[string]any:
			rows := scalarRows(value)
			if len(rows) > 0 {
				section(humanizeKey(key), rows)
			}
			// One level of nesting covers the dashboard payload.
			for _, subKey := range sortedKeys(value) {
				switch sub := value[subKey].(type) {
				case map[string]any:
					if rows := scalarRows(sub); len(rows) > 0 {
						section(humanizeKey(key)+" / "+humanizeKey(subKey), rows)
					}
				case []any:
					if list := api.ExtractList(sub); len(list) > 0 {
						section(humanizeKey(key)+" / "+humanizeKey(subKey), list)
					}
				}
			}
		case []any:
			if list := api.ExtractList(value); len(list) > 0 {
				section(humanizeKey(key), list)
			}
		default:
			if value != nil {
				scalars = append(scalars, map[string]any{"metric": humanizeKey(key), "value": value})
			}
		}
	}
	if len(scalars) > 0 {
		section("Summary", scalars)
	}
}

// scalarRows turns a flat map into metric/value rows, skipping nested
// structures.
func scalarRows(m map[string]any) []map[string]any {
	var rows []map[string]any
	for _, key := range sortedKeys(m) {
		switch m[key].(type) {
		case map[string]any, []any, nil:
			continue
		}
		rows = append(rows, map[string]any{"metric": humanizeKey(key), "value": m[key]})
	}
	return rows
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func humanizeKey(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func init() {
	rootCmd.AddCommand(analyticsCmd)

	for _, c := range []*cobra.Command{
		analyticsDashboardCmd, analyticsAgentCmd, analyticsAgentPerformanceCmd,
		analyticsConversationCmd, analyticsLeadsCmd, analyticsUsageCmd,
		analyticsExportCmd,
	} {
		analyticsCmd.AddCommand(c)
		addAuthFlag(c)
	}

	analyticsDashboardCmd.Flags().String("company-id", "", "Optional company ID (super admin)")
	addFormatFlag(analyticsDashboardCmd, format.JSON)

	analyticsAgentCmd.Flags().String("start-date", "", "ISO start date")
	analyticsAgentCmd.Flags().String("end-date", "", "ISO end date")
	addFormatFlag(analyticsAgentCmd, format.JSON)

	analyticsAgentPerformanceCmd.Flags().String("start-date", "", "ISO start date")
	analyticsAgentPerformanceCmd.Flags().String("end-date", "", "ISO end date")
	addFormatFlag(analyticsAgentPerformanceCmd, format.JSON)

	addFormatFlag(analyticsConversationCmd, format.JSON)

	analyticsLeadsCmd.Flags().String("start-date", "", "ISO start date")
	analyticsLeadsCmd.Flags().String("end-date", "", "ISO end date")
	analyticsLeadsCmd.Flags().Int("days", 0, "Number of days to look back (alternative to start-date)")
	analyticsLeadsCmd.Flags().String("company-id", "", "Super admin override company ID")
	addFormatFlag(analyticsLeadsCmd, format.JSON)

	analyticsUsageCmd.Flags().String("start-date", "", "ISO start date")
	analyticsUsageCmd.Flags().String("end-date", "", "ISO end date")
	addFormatFlag(analyticsUsageCmd, format.JSON)

	analyticsExportCmd.Flags().String("payload", "", "JSON payload describing the export request")
	analyticsExportCmd.Flags().String("type", "", "Type of data to export (conversations, leads, agents, usage)")
	analyticsExportCmd.Flags().String("export-format", "csv", "Export format (csv, json)")
	analyticsExportCmd.Flags().String("start-date", "", "Start date for export")
	analyticsExportCmd.Flags().String("end-date", "", "End date for export")
	addWaitFlags(analyticsExportCmd, true)
}
