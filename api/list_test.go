package api_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Knowrithm/knowrithm-cli/api"
)

var _ = Describe("ExtractList", func() {

	It("passes a bare array through", func() {
		items := api.ExtractList([]any{
			map[string]any{"id": "a"},
			map[string]any{"id": "b"},
		})
		Expect(items).To(HaveLen(2))
		Expect(items[0]).To(HaveKeyWithValue("id", "a"))
	})

	It("unwraps the data key", func() {
		items := api.ExtractList(map[string]any{
			"data":  []any{map[string]any{"id": "a"}},
			"total": float64(1),
		})
		Expect(items).To(HaveLen(1))
	})

	It("unwraps resource-specific keys", func() {
		items := api.ExtractList(map[string]any{
			"agents": []any{map[string]any{"id": "a"}},
		}, "agents")
		Expect(items).To(HaveLen(1))
	})

	It("prefers data over caller keys", func() {
		items := api.ExtractList(map[string]any{
			"data":   []any{map[string]any{"id": "from-data"}},
			"agents": []any{map[string]any{"id": "from-agents"}},
		}, "agents")
		Expect(items).To(HaveLen(1))
		Expect(items[0]).To(HaveKeyWithValue("id", "from-data"))
	})

	It("skips non-object elements", func() {
		items := api.ExtractList([]any{
			map[string]any{"id": "a"},
			"stray string",
			float64(7),
		})
		Expect(items).To(HaveLen(1))
	})

	It("degrades to empty for unrecognized shapes", func() {
		Expect(api.ExtractList(nil)).To(BeEmpty())
		Expect(api.ExtractList("text")).To(BeEmpty())
		Expect(api.ExtractList(map[string]any{"status": "ok"})).To(BeEmpty())
	})
})
