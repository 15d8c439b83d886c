package chat

import (
	"sort"
	"sync"
)

// Registry is the presence registry: the single source of truth for which
// users are reachable right now. One handle per user; registering again for
// the same user supersedes the previous connection (newest wins) without
// closing it.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]*Client)}
}

// Register inserts or replaces the mapping for the client's user.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[c.UserID] = c
}

// Unregister removes the mapping, but only if c is still the registered
// handle. A superseded connection closing later must not evict its
// successor. Absent entries are a no-op, so disconnect races are idempotent.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byUser[c.UserID]; ok && cur == c {
		delete(r.byUser, c.UserID)
	}
}

// Lookup returns the live handle for a user. A miss is the normal "offline"
// outcome, never an error.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// Snapshot returns the online user set, sorted for stable broadcasts.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byUser))
	for uid := range r.byUser {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// Clients returns every registered handle, for whole-registry broadcasts.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byUser))
	for _, c := range r.byUser {
		out = append(out, c)
	}
	return out
}
