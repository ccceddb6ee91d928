package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Knowrithm/knowrithm-cli/config"
)

var _ = Describe("Config", func() {

	BeforeEach(func() {
		isolateConfigDir()
	})

	Describe("Load", func() {
		It("returns defaults when no file exists", func() {
			cfg, err := config.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.BaseURL).To(BeEmpty())
			Expect(cfg.VerifySSL).To(BeTrue())
		})

		It("returns an error naming the file for malformed JSON", func() {
			path, err := config.Path()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.MkdirAll(filepath.Dir(path), 0700)).To(Succeed())
			Expect(os.WriteFile(path, []byte("{not json"), 0600)).To(Succeed())

			_, err = config.Load()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(path))
		})
	})

	Describe("SetBaseURL", func() {
		It("persists the URL with trailing slashes stripped", func() {
			_, err := config.SetBaseURL("https://api.knowrithm.org/")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := config.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.BaseURL).To(Equal("https://api.knowrithm.org"))
		})

		It("writes the config file with owner-only permissions", func() {
			_, err := config.SetBaseURL("https://api.knowrithm.org")
			Expect(err).NotTo(HaveOccurred())

			path, err := config.Path()
			Expect(err).NotTo(HaveOccurred())
			info, err := os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))
		})
	})

	Describe("SetVerifySSL", func() {
		It("round-trips the flag", func() {
			_, err := config.SetVerifySSL(false)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := config.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.VerifySSL).To(BeFalse())
		})
	})

	Describe("JWT token storage", func() {
		It("stores and clears tokens", func() {
			Expect(config.StoreJWTTokens("access", "refresh", "2099-01-01T00:00:00Z")).To(Succeed())

			cfg, err := config.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Auth.JWT.AccessToken).To(Equal("access"))
			Expect(cfg.Auth.JWT.RefreshToken).To(Equal("refresh"))
			Expect(cfg.Auth.JWT.ExpiresAt).To(Equal("2099-01-01T00:00:00Z"))

			Expect(config.ClearJWTTokens()).To(Succeed())
			cfg, err = config.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Auth.JWT.AccessToken).To(BeEmpty())
		})

		It("keeps the previous refresh token when the new one is empty", func() {
			Expect(config.StoreJWTTokens("first", "refresh-1", "")).To(Succeed())
			Expect(config.StoreJWTTokens("second", "", "")).To(Succeed())

			cfg, err := config.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Auth.JWT.AccessToken).To(Equal("second"))
			Expect(cfg.Auth.JWT.RefreshToken).To(Equal("refresh-1"))
		})
	})

	Describe("API credentials", func() {
		It("stores and clears the key pair without touching JWT state", func() {
			Expect(config.StoreJWTTokens("access", "", "")).To(Succeed())
			Expect(config.StoreAPICredentials("key", "secret")).To(Succeed())

			cfg, err := config.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Auth.APIKey.Key).To(Equal("key"))
			Expect(cfg.Auth.JWT.AccessToken).To(Equal("access"))

			Expect(config.ClearAPICredentials()).To(Succeed())
			cfg, err = config.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Auth.APIKey.Key).To(BeEmpty())
			Expect(cfg.Auth.JWT.AccessToken).To(Equal("access"))
		})
	})

	Describe("Redacted", func() {
		It("masks secret material but keeps the key identifier", func() {
			Expect(config.StoreAPICredentials("pk-visible", "sk-hidden")).To(Succeed())
			Expect(config.StoreJWTTokens("token", "refresh", "")).To(Succeed())

			cfg, err := config.Load()
			Expect(err).NotTo(HaveOccurred())
			view := cfg.Redacted()

			auth := view["auth"].(map[string]any)
			apiKey := auth["api_key"].(map[string]any)
			jwt := auth["jwt"].(map[string]any)
			Expect(apiKey["key"]).To(Equal("pk-visible"))
			Expect(apiKey["secret"]).To(Equal("********"))
			Expect(jwt["access_token"]).To(Equal("********"))
		})
	})
})
