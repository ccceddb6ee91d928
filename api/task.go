package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultPollInterval is how often task status is checked when the
// caller does not override it.
const DefaultPollInterval = 2 * time.Second

var errTaskPending = errors.New("task still running")

// TaskID extracts the task identifier from an asynchronous response
// envelope, or "" when the response is synchronous.
func TaskID(v any) string {
	if m, ok := v.(map[string]any); ok {
		if id, ok := m["task_id"].(string); ok {
			return id
		}
	}
	return ""
}

// WaitForTask polls the task status endpoint on a constant schedule
// until the task reaches a terminal state or ctx expires. The status
// endpoint is public, so polling never consumes credentials.
func (c *Client) WaitForTask(ctx context.Context, taskID string, interval time.Duration) (any, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	var result any
	poll := func() error {
		resp, err := c.Get(ctx, "/api/v1/tasks/"+taskID+"/status", &RequestOptions{Auth: AuthNone})
		if err != nil {
			return backoff.Permanent(err)
		}
		payload, _ := resp.(map[string]any)
		state, _ := payload["state"].(string)
		if state == "" {
			state, _ = payload["status"].(string)
		}
		switch strings.ToLower(state) {
		case "success", "completed", "finished":
			if r, ok := payload["result"]; ok && r != nil {
				result = r
			} else {
				result = resp
			}
			return nil
		case "failure", "failed", "error", "cancelled":
			msg, _ := payload["error"].(string)
			if msg == "" {
				msg, _ = payload["message"].(string)
			}
			if msg == "" {
				msg = fmt.Sprintf("task %s failed", taskID)
			}
			return backoff.Permanent(&Error{Message: msg})
		}
		return errTaskPending
	}

	err := backoff.Retry(poll, backoff.WithContext(backoff.NewConstantBackOff(interval), ctx))
	if err != nil {
		if errors.Is(err, errTaskPending) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timed out waiting for task %s", taskID)
		}
		return nil, err
	}
	return result, nil
}

// ResolveAsync follows the task envelope of a response when wait is
// set. Synchronous responses pass through untouched.
func (c *Client) ResolveAsync(ctx context.Context, resp any, wait bool, interval time.Duration) (any, error) {
	if !wait {
		return resp, nil
	}
	taskID := TaskID(resp)
	if taskID == "" {
		return resp, nil
	}
	return c.WaitForTask(ctx, taskID, interval)
}
