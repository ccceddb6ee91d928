package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Knowrithm/knowrithm-cli/config"
)

var _ = Describe("Context", func() {

	var dir string

	BeforeEach(func() {
		dir = isolateConfigDir()
	})

	It("is empty when no file exists", func() {
		ctx := config.LoadContext()
		Expect(ctx.Empty()).To(BeTrue())
	})

	It("tolerates a corrupt context file", func() {
		Expect(os.WriteFile(filepath.Join(dir, "context.json"), []byte("garbage"), 0600)).To(Succeed())
		ctx := config.LoadContext()
		Expect(ctx.Empty()).To(BeTrue())
	})

	It("round-trips agent, conversation, and company", func() {
		ctx := config.LoadContext()
		Expect(ctx.SetAgent("agent-1", "Support Bot")).To(Succeed())
		Expect(ctx.SetConversation("conv-1", "Onboarding")).To(Succeed())
		Expect(ctx.SetCompany("co-1", "Acme")).To(Succeed())

		loaded := config.LoadContext()
		Expect(loaded.AgentID).To(Equal("agent-1"))
		Expect(loaded.AgentName).To(Equal("Support Bot"))
		Expect(loaded.ConversationID).To(Equal("conv-1"))
		Expect(loaded.CompanyName).To(Equal("Acme"))
	})

	It("falls back to the ID when no display name is given", func() {
		ctx := config.LoadContext()
		Expect(ctx.SetAgent("agent-1", "")).To(Succeed())
		Expect(config.LoadContext().AgentName).To(Equal("agent-1"))
	})

	It("clears a single resource without touching the others", func() {
		ctx := config.LoadContext()
		Expect(ctx.SetAgent("agent-1", "Bot")).To(Succeed())
		Expect(ctx.SetConversation("conv-1", "Chat")).To(Succeed())

		Expect(ctx.ClearAgent()).To(Succeed())
		loaded := config.LoadContext()
		Expect(loaded.AgentID).To(BeEmpty())
		Expect(loaded.ConversationID).To(Equal("conv-1"))
	})

	It("clears everything with ClearAll", func() {
		ctx := config.LoadContext()
		Expect(ctx.SetAgent("agent-1", "Bot")).To(Succeed())
		Expect(ctx.SetCompany("co-1", "Acme")).To(Succeed())

		Expect(ctx.ClearAll()).To(Succeed())
		Expect(config.LoadContext().Empty()).To(BeTrue())
	})

	It("omits unset resources from the snapshot", func() {
		ctx := config.LoadContext()
		Expect(ctx.SetAgent("agent-1", "Bot")).To(Succeed())

		snapshot := ctx.Snapshot()
		Expect(snapshot).To(HaveKey("agent"))
		Expect(snapshot).NotTo(HaveKey("conversation"))
		Expect(snapshot).NotTo(HaveKey("company"))
	})
})
