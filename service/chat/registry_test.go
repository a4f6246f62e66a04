package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryReflectsOpenConnections(t *testing.T) {
	r := NewRegistry()
	c1 := newTestClient("alice")
	c2 := newTestClient("alice")

	assert.True(t, r.Register(c1), "first connection")
	assert.False(t, r.Register(c2), "second connection is not first")
	assert.Len(t, r.ConnectionsFor("alice"), 2)

	got, ok := r.Get(c1.ConnID)
	require.True(t, ok)
	assert.Same(t, c1, got)

	_, last := r.Unregister(c1.ConnID)
	assert.False(t, last)
	assert.Len(t, r.ConnectionsFor("alice"), 1)

	_, ok = r.Get(c1.ConnID)
	assert.False(t, ok, "registry must never report a connection after unregister")

	_, last = r.Unregister(c2.ConnID)
	assert.True(t, last)
	assert.Empty(t, r.ConnectionsFor("alice"))
}

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := newTestClient("alice")

	assert.True(t, r.Register(c))
	assert.False(t, r.Register(c), "same pair twice")
	assert.Len(t, r.ConnectionsFor("alice"), 1)
}

func TestRegistryUnknownConnIsNoop(t *testing.T) {
	r := NewRegistry()
	c, last := r.Unregister("nope")
	assert.Nil(t, c)
	assert.False(t, last)
}

func TestRegistryIgnoresUnboundClients(t *testing.T) {
	r := NewRegistry()
	c := NewClient("c-1", nil, 1) // no user bound yet
	assert.False(t, r.Register(c))
	_, ok := r.Get("c-1")
	assert.False(t, ok)
}

func TestRegistryResolveSkipsDeadConns(t *testing.T) {
	r := NewRegistry()
	c1 := newTestClient("alice")
	c2 := newTestClient("bob")
	r.Register(c1)
	r.Register(c2)
	r.Unregister(c2.ConnID)

	got := r.Resolve([]string{c1.ConnID, c2.ConnID, "ghost"})
	require.Len(t, got, 1)
	assert.Same(t, c1, got[0])
}

func TestRegistryOnlineUsers(t *testing.T) {
	r := NewRegistry()
	r.Register(newTestClient("alice"))
	r.Register(newTestClient("alice"))
	r.Register(newTestClient("bob"))

	assert.ElementsMatch(t, []string{"alice", "bob"}, r.OnlineUsers())
}
