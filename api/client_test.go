package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/config"
)

func signedToken(expiresAt time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": expiresAt.Unix(),
	})
	raw, err := token.SignedString([]byte("test-secret"))
	Expect(err).NotTo(HaveOccurred())
	return raw
}

var _ = Describe("Client", func() {

	It("refuses to build without a base URL", func() {
		_, err := api.NewClient(&config.Config{}, nil)
		Expect(err).To(MatchError(api.ErrNotConfigured))
	})

	Describe("authentication headers", func() {
		var (
			server   *httptest.Server
			received http.Header
		)

		BeforeEach(func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				received = r.Header.Clone()
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"ok": true}`))
			}))
			DeferCleanup(server.Close)
		})

		It("sends a bearer token in jwt mode", func() {
			client := newTestClient(server.URL, config.Auth{
				JWT: config.JWTTokens{AccessToken: "my-token"},
			})
			_, err := client.Get(context.Background(), "/api/v1/auth/user/me", &api.RequestOptions{Auth: api.AuthJWT})
			Expect(err).NotTo(HaveOccurred())
			Expect(received.Get("Authorization")).To(Equal("Bearer my-token"))
		})

		It("errors in jwt mode without a token", func() {
			client := newTestClient(server.URL, config.Auth{})
			_, err := client.Get(context.Background(), "/api/v1/auth/user/me", &api.RequestOptions{Auth: api.AuthJWT})
			Expect(err).To(MatchError(api.ErrNoCredentials))
		})

		It("sends the key pair in api-key mode", func() {
			client := newTestClient(server.URL, config.Auth{
				APIKey: config.APICredentials{Key: "pk", Secret: "sk"},
			})
			_, err := client.Get(context.Background(), "/api/v1/agent", &api.RequestOptions{Auth: api.AuthAPIKey})
			Expect(err).NotTo(HaveOccurred())
			Expect(received.Get("X-API-Key")).To(Equal("pk"))
			Expect(received.Get("X-API-Secret")).To(Equal("sk"))
		})

		It("identifies itself with a versioned user agent", func() {
			client := newTestClient(server.URL, config.Auth{})
			_, err := client.Get(context.Background(), "/api/health", &api.RequestOptions{Auth: api.AuthNone})
			Expect(err).NotTo(HaveOccurred())
			Expect(received.Get("User-Agent")).To(Equal("knowrithm-cli/" + api.Version))
		})

		It("sends no credentials in none mode", func() {
			client := newTestClient(server.URL, config.Auth{
				JWT:    config.JWTTokens{AccessToken: "token"},
				APIKey: config.APICredentials{Key: "pk", Secret: "sk"},
			})
			_, err := client.Get(context.Background(), "/api/health", &api.RequestOptions{Auth: api.AuthNone})
			Expect(err).NotTo(HaveOccurred())
			Expect(received.Get("Authorization")).To(BeEmpty())
			Expect(received.Get("X-API-Key")).To(BeEmpty())
		})

		Describe("auto mode", func() {
			It("prefers a live jwt over the api key", func() {
				client := newTestClient(server.URL, config.Auth{
					JWT:    config.JWTTokens{AccessToken: signedToken(time.Now().Add(time.Hour))},
					APIKey: config.APICredentials{Key: "pk", Secret: "sk"},
				})
				_, err := client.Get(context.Background(), "/api/v1/agent", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(received.Get("Authorization")).To(HavePrefix("Bearer "))
				Expect(received.Get("X-API-Key")).To(BeEmpty())
			})

			It("falls back to the api key when the jwt is expired", func() {
				client := newTestClient(server.URL, config.Auth{
					JWT:    config.JWTTokens{AccessToken: signedToken(time.Now().Add(-time.Hour))},
					APIKey: config.APICredentials{Key: "pk", Secret: "sk"},
				})
				_, err := client.Get(context.Background(), "/api/v1/agent", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(received.Get("Authorization")).To(BeEmpty())
				Expect(received.Get("X-API-Key")).To(Equal("pk"))
			})

			It("sends an expired jwt when there is nothing else", func() {
				client := newTestClient(server.URL, config.Auth{
					JWT: config.JWTTokens{AccessToken: signedToken(time.Now().Add(-time.Hour))},
				})
				_, err := client.Get(context.Background(), "/api/v1/agent", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(received.Get("Authorization")).To(HavePrefix("Bearer "))
			})

			It("errors with no credentials at all", func() {
				client := newTestClient(server.URL, config.Auth{})
				_, err := client.Get(context.Background(), "/api/v1/agent", nil)
				Expect(err).To(MatchError(api.ErrNoCredentials))
			})
		})
	})

	Describe("response handling", func() {
		It("decodes the error envelope", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error": "insufficient permissions", "details": {"required_role": "admin"}}`))
			}))
			defer server.Close()

			client := newTestClient(server.URL, config.Auth{})
			_, err := client.Get(context.Background(), "/api/v1/super-admin/company", &api.RequestOptions{Auth: api.AuthNone})
			Expect(err).To(HaveOccurred())

			var apiErr *api.Error
			Expect(err).To(BeAssignableToTypeOf(apiErr))
			apiErr = err.(*api.Error)
			Expect(apiErr.StatusCode).To(Equal(http.StatusForbidden))
			Expect(apiErr.Message).To(Equal("insufficient permissions"))
			Expect(apiErr.Error()).To(ContainSubstring("[HTTP 403]"))
		})

		It("tries message and detail keys in order", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"message": "agent not found"}`))
			}))
			defer server.Close()

			client := newTestClient(server.URL, config.Auth{})
			_, err := client.Get(context.Background(), "/api/v1/agent/x", &api.RequestOptions{Auth: api.AuthNone})
			Expect(err.(*api.Error).Message).To(Equal("agent not found"))
		})

		It("synthesizes a success payload for an empty delete response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			client := newTestClient(server.URL, config.Auth{})
			resp, err := client.Delete(context.Background(), "/api/v1/agent/x", &api.RequestOptions{Auth: api.AuthNone})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp).To(Equal(map[string]any{"status": "success"}))
		})

		It("returns nil for an empty non-delete response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := newTestClient(server.URL, config.Auth{})
			resp, err := client.Get(context.Background(), "/api/health", &api.RequestOptions{Auth: api.AuthNone})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp).To(BeNil())
		})

		It("wraps non-JSON bodies under a raw key", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/csv")
				w.Write([]byte("id,name\n1,acme\n"))
			}))
			defer server.Close()

			client := newTestClient(server.URL, config.Auth{})
			resp, err := client.Get(context.Background(), "/api/v1/analytic/export", &api.RequestOptions{Auth: api.AuthNone})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp).To(Equal(map[string]any{"raw": "id,name\n1,acme\n"}))
		})

		It("encodes query parameters", func() {
			var gotQuery string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`[]`))
			}))
			defer server.Close()

			client := newTestClient(server.URL, config.Auth{})
			params := map[string][]string{"page": {"2"}, "per_page": {"50"}}
			_, err := client.Get(context.Background(), "/api/v1/agent", &api.RequestOptions{Params: params, Auth: api.AuthNone})
			Expect(err).NotTo(HaveOccurred())
			Expect(gotQuery).To(ContainSubstring("page=2"))
			Expect(gotQuery).To(ContainSubstring("per_page=50"))
		})
	})

	Describe("ParseAuthMode", func() {
		It("accepts the documented values", func() {
			for input, want := range map[string]api.AuthMode{
				"":        api.AuthAuto,
				"auto":    api.AuthAuto,
				"jwt":     api.AuthJWT,
				"api-key": api.AuthAPIKey,
				"none":    api.AuthNone,
			} {
				mode, err := api.ParseAuthMode(input)
				Expect(err).NotTo(HaveOccurred())
				Expect(mode).To(Equal(want))
			}
		})

		It("rejects unknown values", func() {
			_, err := api.ParseAuthMode("basic")
			Expect(err).To(HaveOccurred())
		})
	})
})
