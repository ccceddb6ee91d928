package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/config"
	"github.com/Knowrithm/knowrithm-cli/format"
	"github.com/Knowrithm/knowrithm-cli/resolve"
)

func newClient() (*api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg, logger)
}

func newResolver(client *api.Client) *resolve.Resolver {
	return resolve.New(client, config.LoadNameCache(), os.Stderr)
}

// addAuthFlag registers the shared --auth flag.
func addAuthFlag(cmd *cobra.Command) {
	cmd.Flags().String("auth", "auto", "Authentication strategy (auto, jwt, api-key, none)")
}

func authMode(cmd *cobra.Command) (api.AuthMode, error) {
	s, _ := cmd.Flags().GetString("auth")
	return api.ParseAuthMode(s)
}

// addFormatFlag registers the shared --format flag with a per-command
// default: table for listings, json for raw payloads.
func addFormatFlag(cmd *cobra.Command, def format.Format) {
	cmd.Flags().String("format", string(def),
		"Output format ("+strings.Join(format.All(), ", ")+")")
}

func outputFormat(cmd *cobra.Command) (format.Format, error) {
	s, _ := cmd.Flags().GetString("format")
	return format.Parse(s)
}

// addWaitFlags registers the flags controlling asynchronous task
// handling.
func addWaitFlags(cmd *cobra.Command, waitDefault bool) {
	cmd.Flags().Bool("wait", waitDefault, "Wait for asynchronous tasks to finish")
	cmd.Flags().Bool("no-wait", false, "Return the task envelope without waiting")
	cmd.Flags().Duration("poll-interval", api.DefaultPollInterval, "Task status polling interval")
	cmd.Flags().Duration("timeout", 5*time.Minute, "Maximum time to wait for a task")
}

// waitEnabled reports whether a task envelope should be followed.
// --no-wait overrides a default-on --wait.
func waitEnabled(cmd *cobra.Command) bool {
	if noWait, _ := cmd.Flags().GetBool("no-wait"); noWait {
		return false
	}
	wait, _ := cmd.Flags().GetBool("wait")
	return wait
}

// awaitTask follows a task envelope according to the wait flags.
func awaitTask(cmd *cobra.Command, client *api.Client, resp any) (any, error) {
	if !waitEnabled(cmd) || api.TaskID(resp) == "" {
		return resp, nil
	}
	interval, _ := cmd.Flags().GetDuration("poll-interval")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	return client.ResolveAsync(ctx, resp, true, interval)
}

// loadJSONPayload accepts a raw JSON string or @path to a file, the way
// curl handles request bodies.
func loadJSONPayload(payload string) (any, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, nil
	}
	text := payload
	if strings.HasPrefix(payload, "@") {
		data, err := os.ReadFile(payload[1:])
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return v, nil
}

// objectPayload is loadJSONPayload restricted to JSON objects.
func objectPayload(payload string) (map[string]any, error) {
	v, err := loadJSONPayload(payload)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("payload must be a JSON object")
	}
	return m, nil
}

func printResult(cmd *cobra.Command, data any, f format.Format) error {
	if data == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No data returned.")
		return nil
	}
	out, err := format.Render(data, f)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// fetchAndPrint is the common body of plain read commands.
func fetchAndPrint(cmd *cobra.Command, path string, params url.Values) error {
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
	return printResult(cmd, resp, f)
}

func pageParams(cmd *cobra.Command) url.Values {
	params := url.Values{}
	if page, err := cmd.Flags().GetInt("page"); err == nil {
		params.Set("page", strconv.Itoa(page))
	}
	if perPage, err := cmd.Flags().GetInt("per-page"); err == nil {
		params.Set("per_page", strconv.Itoa(perPage))
	}
	return params
}

func addPageFlags(cmd *cobra.Command, perPage int) {
	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().Int("per-page", perPage, "Results per page")
}
