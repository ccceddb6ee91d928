package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/config"
)

func taskServer(states ...map[string]any) (*httptest.Server, *atomic.Int64) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		state := states[len(states)-1]
		if int(n) <= len(states) {
			state = states[n-1]
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(state)
	}))
	return server, &calls
}

var _ = Describe("Tasks", func() {

	Describe("TaskID", func() {
		It("extracts the task identifier", func() {
			Expect(api.TaskID(map[string]any{"task_id": "t-1"})).To(Equal("t-1"))
		})

		It("is empty for synchronous responses", func() {
			Expect(api.TaskID(map[string]any{"id": "agent-1"})).To(BeEmpty())
			Expect(api.TaskID([]any{})).To(BeEmpty())
			Expect(api.TaskID(nil)).To(BeEmpty())
		})
	})

	Describe("WaitForTask", func() {
		It("polls until the task succeeds and returns its result", func() {
			server, calls := taskServer(
				map[string]any{"state": "pending"},
				map[string]any{"state": "pending"},
				map[string]any{"state": "success", "result": map[string]any{"id": "agent-1"}},
			)
			defer server.Close()

			client := newTestClient(server.URL, config.Auth{})
			result, err := client.WaitForTask(context.Background(), "t-1", time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveKeyWithValue("id", "agent-1"))
			Expect(calls.Load()).To(BeNumerically(">=", 3))
		})

		It("accepts completed and finished as terminal", func() {
			for _, state := range []string{"completed", "FINISHED"} {
				server, _ := taskServer(map[string]any{"state": state})
				client := newTestClient(server.URL, config.Auth{})
				_, err := client.WaitForTask(context.Background(), "t-1", time.Millisecond)
				server.Close()
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("returns the whole payload when there is no result field", func() {
			server, _ := taskServer(map[string]any{"status": "success", "processed": float64(4)})
			defer server.Close()

			client := newTestClient(server.URL, config.Auth{})
			result, err := client.WaitForTask(context.Background(), "t-1", time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveKeyWithValue("processed", float64(4)))
		})

		It("surfaces the failure message", func() {
			server, _ := taskServer(map[string]any{"state": "failure", "error": "embedding model unavailable"})
			defer server.Close()

			client := newTestClient(server.URL, config.Auth{})
			_, err := client.WaitForTask(context.Background(), "t-1", time.Millisecond)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("embedding model unavailable"))
		})

		It("names the task when a failed state carries no message", func() {
			server, _ := taskServer(map[string]any{"state": "cancelled"})
			defer server.Close()

			client := newTestClient(server.URL, config.Auth{})
			_, err := client.WaitForTask(context.Background(), "t-9", time.Millisecond)
			Expect(err).To(MatchError(ContainSubstring("task t-9 failed")))
		})

		It("times out through the context", func() {
			server, _ := taskServer(map[string]any{"state": "pending"})
			defer server.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()

			client := newTestClient(server.URL, config.Auth{})
			_, err := client.WaitForTask(ctx, "t-1", time.Millisecond)
			Expect(err).To(MatchError(ContainSubstring("timed out waiting for task t-1")))
		})
	})

	Describe("ResolveAsync", func() {
		It("passes synchronous responses through", func() {
			client := newTestClient("http://localhost:1", config.Auth{})
			resp := map[string]any{"id": "agent-1"}
			out, err := client.ResolveAsync(context.Background(), resp, true, time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(resp))
		})

		It("leaves the task envelope alone when wait is off", func() {
			client := newTestClient("http://localhost:1", config.Auth{})
			resp := map[string]any{"task_id": "t-1"}
			out, err := client.ResolveAsync(context.Background(), resp, false, time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(resp))
		})

		It("follows the task envelope when wait is on", func() {
			server, _ := taskServer(map[string]any{"state": "success", "result": map[string]any{"done": true}})
			defer server.Close()

			client := newTestClient(server.URL, config.Auth{})
			out, err := client.ResolveAsync(context.Background(), map[string]any{"task_id": "t-1"}, true, time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveKeyWithValue("done", true))
		})
	})
})
