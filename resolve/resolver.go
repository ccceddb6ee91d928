// Package resolve maps human-friendly resource names to server-assigned
// UUIDs, backed by the local name cache with a single fetch-and-cache
// cycle on a miss and a fuzzy fallback over cached names.
package resolve

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/config"
)

// Resolver resolves names against the cache, then the API.
type Resolver struct {
	client *api.Client
	cache  *config.NameCache
	notice io.Writer
}

// New builds a resolver. notice receives "did you mean" hints and is
// usually stderr; nil discards them.
func New(client *api.Client, cache *config.NameCache, notice io.Writer) *Resolver {
	if notice == nil {
		notice = io.Discard
	}
	return &Resolver{client: client, cache: cache, notice: notice}
}

// Agent resolves an agent name or UUID.
func (r *Resolver) Agent(ctx context.Context, nameOrID string) (string, error) {
	return r.resolve(ctx, config.CacheAgents, "agent", nameOrID, r.fetchAgent, "agent list")
}

// Conversation resolves a conversation title or UUID.
func (r *Resolver) Conversation(ctx context.Context, nameOrID string) (string, error) {
	return r.resolve(ctx, config.CacheConversations, "conversation", nameOrID, r.fetchConversation, "conversation list")
}

// Database resolves a database connection name or UUID.
func (r *Resolver) Database(ctx context.Context, nameOrID string) (string, error) {
	return r.resolve(ctx, config.CacheDatabases, "database", nameOrID, r.fetchDatabase, "database list")
}

// Company resolves a company name or UUID (super admin only).
func (r *Resolver) Company(ctx context.Context, nameOrID string) (string, error) {
	return r.resolve(ctx, config.CacheCompanies, "company", nameOrID, r.fetchCompany, "company list")
}

// fetchFunc looks a name up remotely and returns the canonical name and
// the ID, or an error when the resource does not exist.
type fetchFunc func(ctx context.Context, name string) (canonical, id string, err error)

func (r *Resolver) resolve(ctx context.Context, category, kind, nameOrID string, fetch fetchFunc, listCmd string) (string, error) {
	if isUUID(nameOrID) {
		return nameOrID, nil
	}
	if id, ok := r.cache.Lookup(category, nameOrID); ok {
		return id, nil
	}
	if canonical, id, err := fetch(ctx, nameOrID); err == nil && id != "" {
		_ = r.cache.Put(category, canonical, id)
		return id, nil
	}
	if id, ok := r.fuzzyMatch(category, nameOrID); ok {
		return id, nil
	}
	return "", fmt.Errorf("%s %q not found; use `knowrithm %s` to see what is available", kind, nameOrID, listCmd)
}

func (r *Resolver) fetchAgent(ctx context.Context, name string) (string, string, error) {
	resp, err := r.client.Get(ctx, "/api/v1/agent/by-name/"+url.PathEscape(name), nil)
	if err != nil {
		return "", "", err
	}
	payload, _ := resp.(map[string]any)
	id, _ := payload["id"].(string)
	canonical, _ := payload["name"].(string)
	if canonical == "" {
		canonical = name
	}
	return canonical, id, nil
}

func (r *Resolver) fetchConversation(ctx context.Context, title string) (string, string, error) {
	params := url.Values{"per_page": {"100"}}
	resp, err := r.client.Get(ctx, "/api/v1/conversation", &api.RequestOptions{Params: params})
	if err != nil {
		return "", "", err
	}
	return matchByField(api.ExtractList(resp, "conversations"), "title", title)
}

func (r *Resolver) fetchDatabase(ctx context.Context, name string) (string, string, error) {
	resp, err := r.client.Get(ctx, "/api/v1/database-connection", nil)
	if err != nil {
		return "", "", err
	}
	return matchByField(api.ExtractList(resp, "connections"), "name", name)
}

func (r *Resolver) fetchCompany(ctx context.Context, name string) (string, string, error) {
	params := url.Values{"per_page": {"100"}}
	resp, err := r.client.Get(ctx, "/api/v1/super-admin/company", &api.RequestOptions{
		Params: params,
		Auth:   api.AuthJWT,
	})
	if err != nil {
		return "", "", err
	}
	return matchByField(api.ExtractList(resp, "companies"), "name", name)
}

func matchByField(items []map[string]any, field, want string) (string, string, error) {
	for _, item := range items {
		value, _ := item[field].(string)
		if strings.EqualFold(value, want) {
			id, _ := item["id"].(string)
			return value, id, nil
		}
	}
	return "", "", fmt.Errorf("no entry matching %q", want)
}

func (r *Resolver) fuzzyMatch(category, name string) (string, bool) {
	matches := fuzzy.Find(strings.ToLower(name), r.cache.Names(category))
	if len(matches) == 0 {
		return "", false
	}
	best := matches[0].Str
	id, ok := r.cache.Lookup(category, best)
	if ok {
		fmt.Fprintf(r.notice, "Did you mean %q? Using that instead of %q.\n", best, name)
	}
	return id, ok
}

// isUUID only accepts the canonical 36-character form; uuid.Parse alone
// would also take braced and urn-prefixed variants, which users never
// paste from the dashboard.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
