package chat

import (
	"hash/fnv"
	"sync"
	"time"

	"CampusChat/logger"
)

// PresenceMirror pushes online/offline state to an external view (Redis).
// Mirror failures are logged and ignored: the registry is the truth.
type PresenceMirror interface {
	Online(userID string) error
	Offline(userID string, lastSeen time.Time) error
}

// CustomStatus is advisory text shown next to a user. It never affects the
// online/offline computation. An elapsed expiry makes it read as absent.
type CustomStatus struct {
	Text     string    `json:"text"`
	ExpireAt time.Time `json:"expireAt"`
}

const presenceStripes = 64

// Presence derives online/offline state from registry transitions. The only
// two edges are offline->online on a user's first connection and
// online->offline on their last disconnect; additional connections of an
// already-online user are silent.
//
// Connect/disconnect for the same user are serialized through a stripe lock
// keyed by user id, so "first" and "last" are computed against a consistent
// count. Cross-user events take independent stripes and need no ordering.
type Presence struct {
	reg    *Registry
	rooms  *Rooms
	emit   Emitter
	mirror PresenceMirror

	stripes [presenceStripes]sync.Mutex

	mu       sync.RWMutex
	statuses map[string]CustomStatus
	lastSeen map[string]time.Time

	now func() time.Time // injectable clock for tests
}

func NewPresence(reg *Registry, rooms *Rooms, emit Emitter, mirror PresenceMirror) *Presence {
	return &Presence{
		reg:      reg,
		rooms:    rooms,
		emit:     emit,
		mirror:   mirror,
		statuses: make(map[string]CustomStatus),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (p *Presence) stripe(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &p.stripes[h.Sum32()%presenceStripes]
}

// OnConnect registers the connection; on the user's first live connection it
// broadcasts user_online globally. The client must have UserID bound.
func (p *Presence) OnConnect(c *Client) {
	if c == nil || c.UserID == "" {
		return
	}
	mu := p.stripe(c.UserID)
	mu.Lock()
	defer mu.Unlock()

	if first := p.reg.Register(c); !first {
		return
	}
	if p.mirror != nil {
		if err := p.mirror.Online(c.UserID); err != nil {
			logger.Warnf("[presence] mirror online failed user=%s err=%v", c.UserID, err)
		}
	}
	p.emit.EmitGlobal(EvUserOnline, PresencePayload{UserID: c.UserID})
}

// OnDisconnect resolves the owning user through the reverse index,
// unregisters the connection and drops all of its room memberships
// synchronously, then broadcasts user_offline if no connections remain.
// Unknown connection ids are no-ops.
func (p *Presence) OnDisconnect(connID string) {
	c, ok := p.reg.Get(connID)
	if !ok {
		// late or duplicate disconnect; memberships may still linger if the
		// connection never authenticated
		p.rooms.LeaveAll(connID)
		return
	}

	mu := p.stripe(c.UserID)
	mu.Lock()
	defer mu.Unlock()

	c, last := p.reg.Unregister(connID)
	p.rooms.LeaveAll(connID)
	if c == nil || !last {
		return
	}

	now := p.now()
	p.mu.Lock()
	p.lastSeen[c.UserID] = now
	p.mu.Unlock()

	if p.mirror != nil {
		if err := p.mirror.Offline(c.UserID, now); err != nil {
			logger.Warnf("[presence] mirror offline failed user=%s err=%v", c.UserID, err)
		}
	}
	p.emit.EmitGlobal(EvUserOffline, PresencePayload{UserID: c.UserID})
}

// Online reports whether the user has at least one live connection.
func (p *Presence) Online(userID string) bool {
	return len(p.reg.ConnectionsFor(userID)) > 0
}

func (p *Presence) OnlineUsers() []string {
	return p.reg.OnlineUsers()
}

// LastSeen returns the timestamp of the user's last online->offline
// transition on this gateway.
func (p *Presence) LastSeen(userID string) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ts, ok := p.lastSeen[userID]
	return ts, ok
}

// SetCustomStatus stores advisory status text. A zero expiry means the
// status does not expire.
func (p *Presence) SetCustomStatus(userID, text string, expireAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if text == "" {
		delete(p.statuses, userID)
		return
	}
	p.statuses[userID] = CustomStatus{Text: text, ExpireAt: expireAt}
}

// GetCustomStatus applies lazy expiry: an elapsed status reads as absent. No
// background sweep is required.
func (p *Presence) GetCustomStatus(userID string) (CustomStatus, bool) {
	p.mu.RLock()
	st, ok := p.statuses[userID]
	p.mu.RUnlock()
	if !ok {
		return CustomStatus{}, false
	}
	if !st.ExpireAt.IsZero() && !st.ExpireAt.After(p.now()) {
		p.mu.Lock()
		delete(p.statuses, userID)
		p.mu.Unlock()
		return CustomStatus{}, false
	}
	return st, true
}
