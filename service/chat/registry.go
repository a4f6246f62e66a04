package chat

import (
	"sync"
)

// Registry maps users to their live connections. It keeps a forward index
// (user -> conn_id -> client) and a reverse index (conn_id -> client) so a
// closing socket resolves its owner in O(1) instead of a scan.
//
// The registry emits nothing itself: Register/Unregister report whether the
// operation was the user's first or last connection and the caller decides
// what to broadcast. Lock scope is a single map operation, never I/O.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Client // user -> conn_id -> client
	byConn map[string]*Client            // conn_id -> client
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[string]*Client),
		byConn: make(map[string]*Client),
	}
}

// Register adds the connection under its user and reports whether it was the
// user's first live connection. Registering the same pair twice is idempotent.
// The client's UserID must not change while registered: both indexes key off
// the id seen here, so a rebind has to go through Unregister first.
func (r *Registry) Register(c *Client) (first bool) {
	if c == nil || c.UserID == "" || c.ConnID == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.byUser[c.UserID]
	if m == nil {
		m = make(map[string]*Client)
		r.byUser[c.UserID] = m
	}
	if _, dup := m[c.ConnID]; dup {
		return false
	}
	first = len(m) == 0
	m[c.ConnID] = c
	r.byConn[c.ConnID] = c
	return first
}

// Unregister removes the connection and reports the owning client and whether
// it was the user's last connection. Unknown conn ids are a no-op: duplicate
// or late disconnect events must not fail.
func (r *Registry) Unregister(connID string) (c *Client, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	delete(r.byConn, connID)
	if m := r.byUser[c.UserID]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.byUser, c.UserID)
			last = true
		}
	}
	return c, last
}

// ConnectionsFor returns all live connections of a user, in no particular
// order. Used by direct-message and per-user broadcasts to reach every device.
func (r *Registry) ConnectionsFor(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// Get resolves a connection id to its client.
func (r *Registry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byConn[connID]
	return c, ok
}

// Resolve maps a set of connection ids to live clients, silently skipping any
// that are already gone.
func (r *Registry) Resolve(connIDs []string) []*Client {
	if len(connIDs) == 0 {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(connIDs))
	for _, id := range connIDs {
		if c, ok := r.byConn[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// All returns every live connection (global broadcasts).
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byConn))
	for _, c := range r.byConn {
		out = append(out, c)
	}
	return out
}

// OnlineUsers lists users with at least one live connection.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	return out
}
