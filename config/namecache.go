package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const nameCacheFile = "name_cache.json"

// Name cache categories. Each category maps lowercased display names to
// server-assigned identifiers.
const (
	CacheAgents        = "agents"
	CacheConversations = "conversations"
	CacheDatabases     = "databases"
	CacheCompanies     = "companies"
)

// NameCache is the local name-to-ID lookup table used by the resolver.
type NameCache struct {
	entries map[string]map[string]string
}

func emptyCache() map[string]map[string]string {
	return map[string]map[string]string{
		CacheAgents:        {},
		CacheConversations: {},
		CacheDatabases:     {},
		CacheCompanies:     {},
	}
}

// LoadNameCache reads name_cache.json, tolerating a missing or corrupt
// file the same way LoadContext does.
func LoadNameCache() *NameCache {
	cache := &NameCache{entries: emptyCache()}
	dir, err := Dir()
	if err != nil {
		return cache
	}
	data, err := os.ReadFile(filepath.Join(dir, nameCacheFile))
	if err != nil {
		return cache
	}
	var entries map[string]map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return cache
	}
	for category, names := range entries {
		if names != nil {
			cache.entries[category] = names
		}
	}
	return cache
}

func (n *NameCache) save() error {
	if err := ensureDir(); err != nil {
		return err
	}
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(n.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, nameCacheFile), append(data, '\n'), 0600)
}

// Lookup returns the cached ID for a name, case-insensitively.
func (n *NameCache) Lookup(category, name string) (string, bool) {
	names, ok := n.entries[category]
	if !ok {
		return "", false
	}
	id, ok := names[strings.ToLower(name)]
	return id, ok
}

// Put records a name-to-ID mapping and persists the cache.
func (n *NameCache) Put(category, name, id string) error {
	if n.entries[category] == nil {
		n.entries[category] = map[string]string{}
	}
	n.entries[category][strings.ToLower(name)] = id
	return n.save()
}

// Names returns the cached names for a category, sorted for stable
// fuzzy-match candidates.
func (n *NameCache) Names(category string) []string {
	names := make([]string, 0, len(n.entries[category]))
	for name := range n.entries[category] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear empties one category, or every category when category is "".
func (n *NameCache) Clear(category string) error {
	if category == "" {
		n.entries = emptyCache()
	} else {
		n.entries[category] = map[string]string{}
	}
	return n.save()
}
