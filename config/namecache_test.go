package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Knowrithm/knowrithm-cli/config"
)

var _ = Describe("NameCache", func() {

	var dir string

	BeforeEach(func() {
		dir = isolateConfigDir()
	})

	It("starts empty when no file exists", func() {
		cache := config.LoadNameCache()
		_, ok := cache.Lookup(config.CacheAgents, "anything")
		Expect(ok).To(BeFalse())
	})

	It("tolerates a corrupt cache file", func() {
		Expect(os.WriteFile(filepath.Join(dir, "name_cache.json"), []byte("[broken"), 0600)).To(Succeed())
		cache := config.LoadNameCache()
		Expect(cache.Names(config.CacheAgents)).To(BeEmpty())
	})

	It("persists entries and looks them up case-insensitively", func() {
		cache := config.LoadNameCache()
		Expect(cache.Put(config.CacheAgents, "Support Bot", "agent-1")).To(Succeed())

		loaded := config.LoadNameCache()
		id, ok := loaded.Lookup(config.CacheAgents, "support bot")
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal("agent-1"))

		id, ok = loaded.Lookup(config.CacheAgents, "SUPPORT BOT")
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal("agent-1"))
	})

	It("keeps categories separate", func() {
		cache := config.LoadNameCache()
		Expect(cache.Put(config.CacheAgents, "prod", "agent-1")).To(Succeed())
		Expect(cache.Put(config.CacheDatabases, "prod", "db-1")).To(Succeed())

		id, ok := cache.Lookup(config.CacheDatabases, "prod")
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal("db-1"))
	})

	It("returns sorted names for a category", func() {
		cache := config.LoadNameCache()
		Expect(cache.Put(config.CacheAgents, "zeta", "z")).To(Succeed())
		Expect(cache.Put(config.CacheAgents, "alpha", "a")).To(Succeed())

		Expect(cache.Names(config.CacheAgents)).To(Equal([]string{"alpha", "zeta"}))
	})

	Describe("Clear", func() {
		It("clears a single category", func() {
			cache := config.LoadNameCache()
			Expect(cache.Put(config.CacheAgents, "bot", "agent-1")).To(Succeed())
			Expect(cache.Put(config.CacheCompanies, "acme", "co-1")).To(Succeed())

			Expect(cache.Clear(config.CacheAgents)).To(Succeed())
			loaded := config.LoadNameCache()
			Expect(loaded.Names(config.CacheAgents)).To(BeEmpty())
			_, ok := loaded.Lookup(config.CacheCompanies, "acme")
			Expect(ok).To(BeTrue())
		})

		It("clears everything when the category is empty", func() {
			cache := config.LoadNameCache()
			Expect(cache.Put(config.CacheAgents, "bot", "agent-1")).To(Succeed())
			Expect(cache.Put(config.CacheCompanies, "acme", "co-1")).To(Succeed())

			Expect(cache.Clear("")).To(Succeed())
			loaded := config.LoadNameCache()
			Expect(loaded.Names(config.CacheAgents)).To(BeEmpty())
			Expect(loaded.Names(config.CacheCompanies)).To(BeEmpty())
		})
	})
})
