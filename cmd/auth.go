package cmd

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/config"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate and manage access credentials",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with email/password and cache JWT tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" {
			if email, err = readLine("Email: "); err != nil {
				return err
			}
		}
		if password == "" {
			if password, err = readSecret("Password: "); err != nil {
				return err
			}
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Post(cmd.Context(), "/api/v1/auth/login", &api.RequestOptions{
			Body: map[string]any{"email": email, "password": password},
			Auth: api.AuthNone,
		})
		if err != nil {
			return err
		}
		if resp, err = awaitTask(cmd, client, resp); err != nil {
			return err
		}
		if tokens := extractTokens(resp); tokens != nil {
			if err := storeTokens(tokens); err != nil {
				return err
			}
		}
		return printResult(cmd, resp, f)
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the current session and clear cached tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Post(cmd.Context(), "/api/v1/auth/logout", nil)
		if err != nil {
			return err
		}
		if err := config.ClearJWTTokens(); err != nil {
			return err
		}
		fmt.Println("Logged out and cleared cached tokens.")
		return printResult(cmd, resp, f)
	},
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the access token using the cached refresh token",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		refreshToken := cfg.Auth.JWT.RefreshToken
		if refreshToken == "" {
			return fmt.Errorf("no refresh token stored; login again or provide an API key")
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Post(cmd.Context(), "/api/v1/auth/refresh", &api.RequestOptions{
			Auth:    api.AuthNone,
			Headers: http.Header{"Authorization": {"Bearer " + refreshToken}},
		})
		if err != nil {
			return err
		}
		tokens := extractTokens(resp)
		if tokens == nil {
			tokens, _ = resp.(map[string]any)
		}
		if tokens != nil {
			if err := storeTokens(tokens); err != nil {
				return err
			}
		}
		return printResult(cmd, resp, f)
	},
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new company admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		payload, _ := cmd.Flags().GetString("payload")
		body, err := objectPayload(payload)
		if err != nil {
			return err
		}
		if body == nil {
			return fmt.Errorf("registration requires a JSON object payload")
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Post(cmd.Context(), "/api/v1/auth/register", &api.RequestOptions{
			Body: body,
			Auth: api.AuthNone,
		})
		if err != nil {
			return err
		}
		return printResult(cmd, resp, f)
	},
}

var authMeCmd = &cobra.Command{
	Use:   "me",
	Short: "Return details for the authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/auth/user/me", nil)
	},
}

var authValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current credentials with the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/auth/validate", nil)
	},
}

var authSetAPIKeyCmd = &cobra.Command{
	Use:   "set-api-key",
	Short: "Persist an API key and secret pair for future requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		secret, _ := cmd.Flags().GetString("secret")
		var err error
		if key == "" {
			if key, err = readLine("API key: "); err != nil {
				return err
			}
		}
		if secret == "" {
			if secret, err = readSecret("API secret: "); err != nil {
				return err
			}
		}
		if err := config.StoreAPICredentials(key, secret); err != nil {
			return err
		}
		fmt.Println("API credentials stored.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials are configured and whether the token is still valid",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		jwtStatus := map[string]any{"present": false}
		if token := cfg.Auth.JWT.AccessToken; token != "" {
			jwtStatus["present"] = true
			jwtStatus["expired"] = api.TokenExpired(token)
			if exp, ok := api.TokenExpiry(token); ok {
				jwtStatus["expires_at"] = exp.Format(time.RFC3339)
			}
			jwtStatus["refresh_token"] = cfg.Auth.JWT.RefreshToken != ""
		}
		status := map[string]any{
			"base_url": cfg.BaseURL,
			"jwt":      jwtStatus,
			"api_key":  map[string]any{"present": cfg.Auth.APIKey.Key != "" && cfg.Auth.APIKey.Secret != ""},
		}
		return printResult(cmd, status, f)
	},
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		clearAll, _ := cmd.Flags().GetBool("all")
		clearTokens, _ := cmd.Flags().GetBool("tokens")
		clearAPIKey, _ := cmd.Flags().GetBool("api-key")
		if !clearAll && !clearTokens && !clearAPIKey {
			fmt.Println("Nothing to clear. Use --tokens, --api-key or --all.")
			return nil
		}
		if clearAll || clearTokens {
			if err := config.ClearJWTTokens(); err != nil {
				return err
			}
			fmt.Println("Cleared JWT tokens.")
		}
		if clearAll || clearAPIKey {
			if err := config.ClearAPICredentials(); err != nil {
				return err
			}
			fmt.Println("Cleared API key credentials.")
		}
		return nil
	},
}

// extractTokens digs the token block out of the login/refresh response.
// The backend has moved it around between releases, so several shapes
// are accepted.
func extractTokens(resp any) map[string]any {
	payload, ok := resp.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range []string{"tokens", "data", "result"} {
		if m, ok := payload[key].(map[string]any); ok {
			if _, ok := m["access_token"]; ok {
				return m
			}
		}
	}
	if _, ok := payload["access_token"]; ok {
		return payload
	}
	return nil
}

func storeTokens(tokens map[string]any) error {
	access, _ := tokens["access_token"].(string)
	if access == "" {
		return nil
	}
	refresh, _ := tokens["refresh_token"].(string)
	expires := scalarString(tokens["expires_at"])
	if expires == "" {
		expires = scalarString(tokens["expires_in"])
	}
	if err := config.StoreJWTTokens(access, refresh, expires); err != nil {
		return err
	}
	fmt.Println("Tokens stored in local configuration.")
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authMeCmd)
	authCmd.AddCommand(authValidateCmd)
	authCmd.AddCommand(authSetAPIKeyCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authClearCmd)

	authLoginCmd.Flags().String("email", "", "User email (prompted when omitted)")
	authLoginCmd.Flags().String("password", "", "Account password (prompted when omitted)")
	addFormatFlag(authLoginCmd, format.JSON)
	addWaitFlags(authLoginCmd, true)

	addFormatFlag(authLogoutCmd, format.JSON)
	addFormatFlag(authRefreshCmd, format.JSON)

	authRegisterCmd.Flags().String("payload", "", "JSON string or @path describing the new admin user")
	addFormatFlag(authRegisterCmd, format.JSON)

	addAuthFlag(authMeCmd)
	addFormatFlag(authMeCmd, format.JSON)
	addAuthFlag(authValidateCmd)
	addFormatFlag(authValidateCmd, format.JSON)

	authSetAPIKeyCmd.Flags().String("key", "", "API key (prompted when omitted)")
	authSetAPIKeyCmd.Flags().String("secret", "", "API secret (prompted when omitted)")

	addFormatFlag(authStatusCmd, format.JSON)

	authClearCmd.Flags().Bool("all", false, "Clear both JWT tokens and API key credentials")
	authClearCmd.Flags().Bool("tokens", false, "Clear only JWT tokens")
	authClearCmd.Flags().Bool("api-key", false, "Clear only API key credentials")
}
