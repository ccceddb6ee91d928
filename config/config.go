// Package config owns the files under ~/.knowrithm: the main
// configuration (base URL, TLS verification, cached credentials), the
// active context, and the name-to-ID cache. Command implementations go
// through the helpers here and never touch the filesystem directly.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirEnv overrides the configuration directory. Used by tests and by
// users who want per-project credentials.
const DirEnv = "KNOWRITHM_CONFIG_DIR"

// Dir returns the directory holding all CLI state files.
func Dir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".knowrithm"), nil
}

// Path returns the location of config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func ensureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// JWTTokens is the cached login session.
type JWTTokens struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

// APICredentials is the key/secret pair for header-based auth.
type APICredentials struct {
	Key    string `json:"key,omitempty"`
	Secret string `json:"secret,omitempty"`
}

// Auth groups the two credential schemes the backend accepts.
type Auth struct {
	JWT    JWTTokens      `json:"jwt"`
	APIKey APICredentials `json:"api_key"`
}

// Config is the persisted CLI configuration.
type Config struct {
	BaseURL   string `json:"base_url,omitempty"`
	VerifySSL bool   `json:"verify_ssl"`
	Auth      Auth   `json:"auth"`
}

func defaults() *Config {
	return &Config{VerifySSL: true}
}

// Load reads config.json, merging it over defaults. A missing file is
// not an error; malformed JSON is, and the error names the file.
func Load() (*Config, error) {
	cfg := defaults()
	path, err := Path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return cfg, nil
}

// Save persists the configuration with restrictive permissions, since
// it can hold tokens and API secrets.
func (c *Config) Save() error {
	if err := ensureDir(); err != nil {
		return err
	}
	path, err := Path()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}

// SetBaseURL stores the API base URL with any trailing slash removed.
func SetBaseURL(url string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(url, "/")
	return cfg, cfg.Save()
}

// SetVerifySSL toggles TLS certificate verification.
func SetVerifySSL(enabled bool) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	cfg.VerifySSL = enabled
	return cfg, cfg.Save()
}

// StoreJWTTokens caches tokens from a login or refresh response.
// Refresh token and expiry are only overwritten when provided.
func StoreJWTTokens(accessToken, refreshToken, expiresAt string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.Auth.JWT.AccessToken = accessToken
	if refreshToken != "" {
		cfg.Auth.JWT.RefreshToken = refreshToken
	}
	if expiresAt != "" {
		cfg.Auth.JWT.ExpiresAt = expiresAt
	}
	return cfg.Save()
}

// ClearJWTTokens drops the cached login session.
func ClearJWTTokens() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.Auth.JWT = JWTTokens{}
	return cfg.Save()
}

// StoreAPICredentials persists the key/secret pair.
func StoreAPICredentials(key, secret string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.Auth.APIKey = APICredentials{Key: key, Secret: secret}
	return cfg.Save()
}

// ClearAPICredentials drops the stored key/secret pair.
func ClearAPICredentials() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.Auth.APIKey = APICredentials{}
	return cfg.Save()
}

// Redacted returns a display copy of the configuration with secret
// material masked, for `knowrithm config show`.
func (c *Config) Redacted() map[string]any {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	return map[string]any{
		"base_url":   c.BaseURL,
		"verify_ssl": c.VerifySSL,
		"auth": map[string]any{
			"jwt": map[string]any{
				"access_token":  mask(c.Auth.JWT.AccessToken),
				"refresh_token": mask(c.Auth.JWT.RefreshToken),
				"expires_at":    c.Auth.JWT.ExpiresAt,
			},
			"api_key": map[string]any{
				"key":    c.Auth.APIKey.Key,
				"secret": mask(c.Auth.APIKey.Secret),
			},
		},
	}
}
