package resolve_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Knowrithm/knowrithm-cli/config"
	"github.com/Knowrithm/knowrithm-cli/resolve"
)

const agentUUID = "1b4e28ba-2fa1-11d2-883f-b9a761bde3fb"

var _ = Describe("Resolver", func() {

	var (
		cache    *config.NameCache
		requests atomic.Int64
		server   *httptest.Server
	)

	BeforeEach(func() {
		isolateConfigDir()
		cache = config.LoadNameCache()
		requests.Store(0)

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.Header().Set("Content-Type", "application/json")
			switch {
			case strings.HasPrefix(r.URL.Path, "/api/v1/agent/by-name/"):
				name := strings.TrimPrefix(r.URL.Path, "/api/v1/agent/by-name/")
				if name == "Support%20Bot" || name == "Support Bot" {
					json.NewEncoder(w).Encode(map[string]any{"id": agentUUID, "name": "Support Bot"})
					return
				}
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]any{"error": "agent not found"})
			case r.URL.Path == "/api/v1/conversation":
				json.NewEncoder(w).Encode(map[string]any{
					"conversations": []any{
						map[string]any{"id": "c-1", "title": "Onboarding Chat"},
						map[string]any{"id": "c-2", "title": "Billing Question"},
					},
				})
			default:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]any{"error": "not found"})
			}
		}))
		DeferCleanup(server.Close)
	})

	It("passes UUIDs through without touching the cache or the API", func() {
		r := resolve.New(newTestClient(server.URL), cache, nil)
		id, err := r.Agent(context.Background(), agentUUID)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(agentUUID))
		Expect(requests.Load()).To(BeZero())
	})

	It("rejects non-canonical UUID forms as names", func() {
		r := resolve.New(newTestClient(server.URL), cache, nil)
		_, err := r.Agent(context.Background(), "{"+agentUUID+"}")
		Expect(err).To(HaveOccurred())
	})

	It("answers from the cache without a request", func() {
		Expect(cache.Put(config.CacheAgents, "Support Bot", agentUUID)).To(Succeed())

		r := resolve.New(newTestClient(server.URL), cache, nil)
		id, err := r.Agent(context.Background(), "support bot")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(agentUUID))
		Expect(requests.Load()).To(BeZero())
	})

	It("fetches once on a miss and caches the canonical name", func() {
		r := resolve.New(newTestClient(server.URL), cache, nil)
		id, err := r.Agent(context.Background(), "Support Bot")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(agentUUID))
		Expect(requests.Load()).To(Equal(int64(1)))

		cached, ok := config.LoadNameCache().Lookup(config.CacheAgents, "Support Bot")
		Expect(ok).To(BeTrue())
		Expect(cached).To(Equal(agentUUID))
	})

	It("resolves conversations by title from the list endpoint", func() {
		r := resolve.New(newTestClient(server.URL), cache, nil)
		id, err := r.Conversation(context.Background(), "billing question")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("c-2"))
	})

	It("falls back to a fuzzy cache match and says so", func() {
		Expect(cache.Put(config.CacheAgents, "customer support bot", agentUUID)).To(Succeed())

		var notice strings.Builder
		r := resolve.New(newTestClient(server.URL), cache, &notice)
		id, err := r.Agent(context.Background(), "suport bot")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(agentUUID))
		Expect(notice.String()).To(ContainSubstring("Did you mean"))
	})

	It("suggests the list command when nothing matches", func() {
		r := resolve.New(newTestClient(server.URL), cache, nil)
		_, err := r.Agent(context.Background(), "ghost")
		Expect(err).To(MatchError(ContainSubstring("knowrithm agent list")))
	})
})
