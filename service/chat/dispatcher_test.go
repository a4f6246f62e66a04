package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CampusChat/tools/errs"
)

func joinChannel(s *Server, c *Client, channelID string) {
	s.Presence().OnConnect(c)
	s.Rooms().Join(c.ConnID, ChannelTopic(channelID))
	drain(c)
}

func TestSubmitBroadcastsToSubscribersOnly(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)

	c1 := newTestClient("alice")
	c2 := newTestClient("bob")
	outsider := newTestClient("carol")
	joinChannel(s, c1, "5")
	joinChannel(s, c2, "5")
	s.Presence().OnConnect(outsider) // online but never joined channel 5
	drain(c1)
	drain(c2)
	drain(outsider)

	msg, err := s.Dispatcher().Submit(context.Background(), ChannelTopic("5"), "alice", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "Alice", msg.Username, "record is enriched before broadcast")

	for _, c := range []*Client{c1, c2} {
		f := recvFrame(t, c)
		assert.Equal(t, EvNewMessage, f.Event)
		assert.Equal(t, "hi", f.Data["content"])
		assert.Equal(t, "alice", f.Data["userId"])
	}
	expectSilence(t, outsider)
}

func TestSubmitAfterDisconnectExcludesDeadConn(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)

	c1 := newTestClient("alice")
	c2 := newTestClient("bob")
	joinChannel(s, c1, "1")
	joinChannel(s, c2, "1")
	drain(c1)

	_, err := s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "alice", "hi")
	require.NoError(t, err)
	assert.Equal(t, EvNewMessage, recvFrame(t, c1).Event)
	assert.Equal(t, EvNewMessage, recvFrame(t, c2).Event)

	s.Presence().OnDisconnect(c2.ConnID)
	drain(c1)

	_, err = s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "alice", "bye")
	require.NoError(t, err)
	f := recvFrame(t, c1)
	assert.Equal(t, "bye", f.Data["content"])
	expectSilence(t, c2)
}

func TestSubmitValidation(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)

	_, err := s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "alice", "")
	assert.True(t, errs.ErrValidation.Is(err))

	_, err = s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "alice", strings.Repeat("x", 51))
	assert.True(t, errs.ErrValidation.Is(err), "max length is enforced")

	_, err = s.Dispatcher().Submit(context.Background(), Topic{}, "alice", "hi")
	assert.True(t, errs.ErrValidation.Is(err))

	_, err = s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "", "hi")
	assert.True(t, errs.ErrValidation.Is(err))

	assert.Zero(t, store.insertCount(), "validation failures must not reach the store")
}

func TestSubmitPersistenceFailureSuppressesBroadcast(t *testing.T) {
	store := newFakeStore()
	store.failing = true
	s := newTestServer(store)

	c := newTestClient("alice")
	joinChannel(s, c, "1")

	_, err := s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "alice", "hi")
	assert.True(t, errs.ErrPersistence.Is(err))
	expectSilence(t, c)
}

func TestSubmitEachCallPersistsOneRow(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)

	m1, err := s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "alice", "hi")
	require.NoError(t, err)
	m2, err := s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "alice", "hi")
	require.NoError(t, err)

	assert.NotEqual(t, m1.ID, m2.ID, "re-submission creates a distinct message")
	assert.Equal(t, 2, store.insertCount())
}

func TestDeleteByAuthor(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)

	c := newTestClient("bob")
	s.Presence().OnConnect(c)
	drain(c)

	msg, err := s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "alice", "hi")
	require.NoError(t, err)

	require.NoError(t, s.Dispatcher().Delete(context.Background(), msg.ID, "alice", false))
	assert.False(t, store.has(msg.ID))

	// deletions are announced globally, so even non-subscribers hear them
	f := recvFrame(t, c)
	assert.Equal(t, EvMessageDeleted, f.Event)
	assert.Equal(t, msg.ID, f.Data["messageId"])
}

func TestDeleteByPrivilegedUser(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)

	msg, err := s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "alice", "hi")
	require.NoError(t, err)

	require.NoError(t, s.Dispatcher().Delete(context.Background(), msg.ID, "moderator", true))
	assert.False(t, store.has(msg.ID))
}

func TestDeleteDeniedForStrangers(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)

	c := newTestClient("bob")
	s.Presence().OnConnect(c)
	drain(c)

	msg, err := s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "alice", "hi")
	require.NoError(t, err)

	err = s.Dispatcher().Delete(context.Background(), msg.ID, "bob", false)
	assert.True(t, errs.ErrAuthorization.Is(err))
	assert.True(t, store.has(msg.ID), "message stays retrievable")
	expectSilence(t, c)
}

func TestDeleteMissingMessage(t *testing.T) {
	s := newTestServer(newFakeStore())
	err := s.Dispatcher().Delete(context.Background(), "nope", "alice", true)
	assert.True(t, errs.ErrRecordNotFound.Is(err))
}

func TestSubmitSurvivesDirectoryOutage(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)

	c := newTestClient("stranger")
	joinChannel(s, c, "1")

	// "stranger" has no directory entry; the bare record still goes out
	msg, err := s.Dispatcher().Submit(context.Background(), ChannelTopic("1"), "stranger", "hello")
	require.NoError(t, err)
	assert.Empty(t, msg.Username)

	f := recvFrame(t, c)
	assert.Equal(t, EvNewMessage, f.Event)
	assert.Equal(t, "hello", f.Data["content"])
}
