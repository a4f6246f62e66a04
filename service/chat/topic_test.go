package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectTopicIsOrderIndependent(t *testing.T) {
	assert.Equal(t, DirectTopic("u2", "u1"), DirectTopic("u1", "u2"))
	assert.Equal(t, "dm-u1-u2", DirectTopic("u2", "u1").Key())
}

func TestTopicKeys(t *testing.T) {
	assert.Equal(t, "channel-5", ChannelTopic("5").Key())
	assert.Equal(t, "group-7", GroupTopic("7").Key())
}

func TestParseTopicKeyRoundTrip(t *testing.T) {
	for _, topic := range []Topic{
		ChannelTopic("5"),
		GroupTopic("7"),
		DirectTopic("a", "b"),
	} {
		got, err := ParseTopicKey(topic.Key())
		require.NoError(t, err)
		assert.Equal(t, topic, got)
	}
}

func TestParseTopicKeyRejectsGarbage(t *testing.T) {
	for _, key := range []string{"", "room-1", "dm-solo", "dm--x"} {
		_, err := ParseTopicKey(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestTopicAsMapKey(t *testing.T) {
	m := map[Topic]int{}
	m[ChannelTopic("1")] = 1
	m[DirectTopic("b", "a")] = 2
	assert.Equal(t, 2, m[DirectTopic("a", "b")])
	assert.Equal(t, 1, m[ChannelTopic("1")])
}
