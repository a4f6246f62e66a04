package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomsJoinLeave(t *testing.T) {
	r := NewRooms()
	ch := ChannelTopic("1")

	r.Join("c1", ch)
	r.Join("c1", ch) // idempotent
	r.Join("c2", ch)

	assert.ElementsMatch(t, []string{"c1", "c2"}, r.SubscribersOf(ch))

	r.Leave("c1", ch)
	assert.Equal(t, []string{"c2"}, r.SubscribersOf(ch))

	r.Leave("c1", ch) // leaving a non-joined topic is a no-op
	assert.Equal(t, []string{"c2"}, r.SubscribersOf(ch))
}

func TestRoomsLeaveAll(t *testing.T) {
	r := NewRooms()
	r.Join("c1", ChannelTopic("1"))
	r.Join("c1", ChannelTopic("2"))
	r.Join("c1", DirectTopic("a", "b"))
	r.Join("c2", ChannelTopic("1"))

	r.LeaveAll("c1")

	assert.Equal(t, []string{"c2"}, r.SubscribersOf(ChannelTopic("1")))
	assert.Empty(t, r.SubscribersOf(ChannelTopic("2")))
	assert.Empty(t, r.SubscribersOf(DirectTopic("b", "a")))
}

func TestRoomsSubscribersOfUnknownTopic(t *testing.T) {
	r := NewRooms()
	assert.Empty(t, r.SubscribersOf(GroupTopic("42")))
}

func TestRoomsIgnoresZeroValues(t *testing.T) {
	r := NewRooms()
	r.Join("", ChannelTopic("1"))
	r.Join("c1", Topic{})
	assert.Empty(t, r.SubscribersOf(ChannelTopic("1")))
}
