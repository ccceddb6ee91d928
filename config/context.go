package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const contextFile = "context.json"

// Context holds the active agent, conversation, and company pointers
// that commands fall back to when no explicit argument is given.
type Context struct {
	AgentID           string `json:"agent_id,omitempty"`
	AgentName         string `json:"agent_name,omitempty"`
	ConversationID    string `json:"conversation_id,omitempty"`
	ConversationTitle string `json:"conversation_title,omitempty"`
	CompanyID         string `json:"company_id,omitempty"`
	CompanyName       string `json:"company_name,omitempty"`
}

// LoadContext reads context.json. A missing or corrupt file yields an
// empty context rather than an error; stale context is never worth
// failing a command over.
func LoadContext() *Context {
	ctx := &Context{}
	dir, err := Dir()
	if err != nil {
		return ctx
	}
	data, err := os.ReadFile(filepath.Join(dir, contextFile))
	if err != nil {
		return ctx
	}
	if err := json.Unmarshal(data, ctx); err != nil {
		return &Context{}
	}
	return ctx
}

// Save persists the context.
func (c *Context) Save() error {
	if err := ensureDir(); err != nil {
		return err
	}
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, contextFile), append(data, '\n'), 0600)
}

// SetAgent records the active agent. An empty name falls back to the ID.
func (c *Context) SetAgent(id, name string) error {
	if name == "" {
		name = id
	}
	c.AgentID, c.AgentName = id, name
	return c.Save()
}

// SetConversation records the active conversation.
func (c *Context) SetConversation(id, title string) error {
	if title == "" {
		title = id
	}
	c.ConversationID, c.ConversationTitle = id, title
	return c.Save()
}

// SetCompany records the active company.
func (c *Context) SetCompany(id, name string) error {
	if name == "" {
		name = id
	}
	c.CompanyID, c.CompanyName = id, name
	return c.Save()
}

// ClearAgent drops the active agent.
func (c *Context) ClearAgent() error {
	c.AgentID, c.AgentName = "", ""
	return c.Save()
}

// ClearConversation drops the active conversation.
func (c *Context) ClearConversation() error {
	c.ConversationID, c.ConversationTitle = "", ""
	return c.Save()
}

// ClearCompany drops the active company.
func (c *Context) ClearCompany() error {
	c.CompanyID, c.CompanyName = "", ""
	return c.Save()
}

// ClearAll resets the whole context.
func (c *Context) ClearAll() error {
	*c = Context{}
	return c.Save()
}

// Empty reports whether no context is set at all.
func (c *Context) Empty() bool {
	return c.AgentID == "" && c.ConversationID == "" && c.CompanyID == ""
}

// Snapshot returns a nested display map, omitting unset resources.
func (c *Context) Snapshot() map[string]any {
	out := map[string]any{}
	if c.AgentID != "" {
		out["agent"] = map[string]any{"id": c.AgentID, "name": c.AgentName}
	}
	if c.ConversationID != "" {
		out["conversation"] = map[string]any{"id": c.ConversationID, "title": c.ConversationTitle}
	}
	if c.CompanyID != "" {
		out["company"] = map[string]any{"id": c.CompanyID, "name": c.CompanyName}
	}
	return out
}
