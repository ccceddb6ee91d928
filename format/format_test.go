package format_test

import (
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/Knowrithm/knowrithm-cli/format"
)

var _ = Describe("Format", func() {

	agents := []any{
		map[string]any{"id": "a-1", "name": "Support Bot", "is_active": true, "message_count": float64(42)},
		map[string]any{"id": "a-2", "name": "Sales Bot", "is_active": false, "last_error": "timeout"},
	}

	Describe("Parse", func() {
		It("accepts every advertised format", func() {
			for _, name := range format.All() {
				f, err := format.Parse(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(f)).To(Equal(name))
			}
		})

		It("is case-insensitive", func() {
			f, err := format.Parse("JSON")
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(format.JSON))
		})

		It("names the accepted values on an unknown format", func() {
			_, err := format.Parse("xml")
			Expect(err).To(MatchError(ContainSubstring("table")))
		})
	})

	Describe("JSON", func() {
		It("renders indented JSON that round-trips", func() {
			out, err := format.Render(agents, format.JSON)
			Expect(err).NotTo(HaveOccurred())

			var decoded []map[string]any
			Expect(json.Unmarshal([]byte(out), &decoded)).To(Succeed())
			Expect(decoded).To(HaveLen(2))
			Expect(decoded[0]).To(HaveKeyWithValue("name", "Support Bot"))
		})

		It("renders nil as null", func() {
			out, err := format.Render(nil, format.JSON)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("null"))
		})
	})

	Describe("YAML", func() {
		It("renders a single object that round-trips", func() {
			out, err := format.Render(map[string]any{"status": "healthy", "uptime": 42}, format.YAML)
			Expect(err).NotTo(HaveOccurred())

			var decoded map[string]any
			Expect(yaml.Unmarshal([]byte(out), &decoded)).To(Succeed())
			Expect(decoded).To(HaveKeyWithValue("status", "healthy"))
			Expect(decoded).To(HaveKeyWithValue("uptime", 42))
		})

		It("renders a list of objects that round-trips", func() {
			out, err := format.Render(agents, format.YAML)
			Expect(err).NotTo(HaveOccurred())

			var decoded []map[string]any
			Expect(yaml.Unmarshal([]byte(out), &decoded)).To(Succeed())
			Expect(decoded).To(HaveLen(2))
			Expect(decoded[0]).To(HaveKeyWithValue("name", "Support Bot"))
			Expect(decoded[0]).To(HaveKeyWithValue("is_active", true))
			Expect(decoded[1]).To(HaveKeyWithValue("last_error", "timeout"))
		})
	})

	Describe("Table", func() {
		It("renders headers and rows for a list", func() {
			out, err := format.Render(agents, format.Table)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Name"))
			Expect(out).To(ContainSubstring("Support Bot"))
			Expect(out).To(ContainSubstring("Sales Bot"))
		})

		It("unwraps a data envelope", func() {
			out, err := format.Render(map[string]any{"data": agents, "total": float64(2)}, format.Table)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Support Bot"))
			Expect(out).NotTo(ContainSubstring("Total"))
		})

		It("renders a single object as one row", func() {
			out, err := format.Render(map[string]any{"id": "a-1", "name": "Support Bot"}, format.Table)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Support Bot"))
		})

		It("says so when there is nothing to show", func() {
			out, err := format.Render([]any{}, format.Table)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("No data to display"))
		})
	})

	Describe("CSV", func() {
		It("emits a header row and one record per item", func() {
			out, err := format.Render(agents, format.CSV)
			Expect(err).NotTo(HaveOccurred())

			lines := strings.Split(out, "\n")
			Expect(lines).To(HaveLen(3))
			Expect(lines[0]).To(ContainSubstring("id"))
			Expect(lines[1]).To(ContainSubstring("Support Bot"))
		})

		It("leaves cells blank for fields a row does not have", func() {
			out, err := format.Render(agents, format.CSV)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("timeout"))

			lines := strings.Split(out, "\n")
			Expect(countCommas(lines[1])).To(Equal(countCommas(lines[2])))
		})

		It("is empty for an empty list", func() {
			out, err := format.Render([]any{}, format.CSV)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(BeEmpty())
		})
	})

	Describe("Tree", func() {
		It("renders nested maps under the given title", func() {
			data := map[string]any{
				"agent": map[string]any{"name": "Support Bot"},
				"stats": map[string]any{"conversations": float64(7)},
			}
			out, err := format.RenderTitled(data, format.Tree, "Agent Stats")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Agent Stats"))
			Expect(out).To(ContainSubstring("Support Bot"))
			Expect(out).To(ContainSubstring("conversations: 7"))
		})

		It("is deterministic across renders", func() {
			data := map[string]any{"b": float64(2), "a": float64(1), "c": float64(3)}
			first, err := format.Render(data, format.Tree)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 5; i++ {
				again, err := format.Render(data, format.Tree)
				Expect(err).NotTo(HaveOccurred())
				Expect(again).To(Equal(first))
			}
		})

		It("indexes list elements", func() {
			out, err := format.Render([]any{"alpha", "beta"}, format.Tree)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("[0]: alpha"))
			Expect(out).To(ContainSubstring("[1]: beta"))
		})
	})

	Describe("cell values", func() {
		It("renders booleans, integers, and nested objects readably", func() {
			out, err := format.Render([]any{map[string]any{
				"active": true,
				"count":  float64(3),
				"ratio":  float64(0.5),
				"tags":   []any{"a", "b"},
			}}, format.CSV)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("✓"))
			Expect(out).To(ContainSubstring("3"))
			Expect(out).To(ContainSubstring("0.5"))
			Expect(out).To(ContainSubstring(`[""a"",""b""]`))
		})
	})
})

func countCommas(s string) int {
	n := 0
	inQuotes := false
	for _, r := range s {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				n++
			}
		}
	}
	return n
}
