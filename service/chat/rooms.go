package chat

import (
	"sync"
)

// Rooms tracks which connections are subscribed to which topic. Topics are
// joined lazily when a client opens a channel or chat view, so a connection's
// membership set stays bounded by what it is actively looking at.
type Rooms struct {
	mu      sync.RWMutex
	byTopic map[Topic]map[string]struct{} // topic -> conn_id set
	byConn  map[string]map[Topic]struct{} // conn_id -> topic set
}

func NewRooms() *Rooms {
	return &Rooms{
		byTopic: make(map[Topic]map[string]struct{}),
		byConn:  make(map[string]map[Topic]struct{}),
	}
}

// Join subscribes a connection to a topic. Joining twice is idempotent.
func (r *Rooms) Join(connID string, t Topic) {
	if connID == "" || t.IsZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.byTopic[t]
	if s == nil {
		s = make(map[string]struct{})
		r.byTopic[t] = s
	}
	s[connID] = struct{}{}

	ts := r.byConn[connID]
	if ts == nil {
		ts = make(map[Topic]struct{})
		r.byConn[connID] = ts
	}
	ts[t] = struct{}{}
}

// Leave unsubscribes a connection from a topic. Leaving a topic that was
// never joined is a no-op.
func (r *Rooms) Leave(connID string, t Topic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, t)
}

func (r *Rooms) leaveLocked(connID string, t Topic) {
	if s := r.byTopic[t]; s != nil {
		delete(s, connID)
		if len(s) == 0 {
			delete(r.byTopic, t)
		}
	}
	if ts := r.byConn[connID]; ts != nil {
		delete(ts, t)
		if len(ts) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// LeaveAll removes the connection from every topic it had joined. Called
// synchronously as part of disconnect handling so no later broadcast targets
// a dead connection.
func (r *Rooms) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for t := range r.byConn[connID] {
		r.leaveLocked(connID, t)
	}
}

// SubscribersOf snapshots the exact delivery set for a broadcast.
func (r *Rooms) SubscribersOf(t Topic) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.byTopic[t]
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}
