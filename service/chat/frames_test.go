package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CampusChat/tools/decode"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"send_message","data":{"channelId":"1","content":"hi"}}`))
	require.NoError(t, err)
	assert.Equal(t, EvSendMessage, f.Event)
	assert.Equal(t, "hi", f.Data["content"])
}

func TestParseFrameRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "not json", "[1,2]", `{"data":{}}`} {
		_, err := ParseFrame([]byte(raw))
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestParseFrameWithoutData(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"user_join"}`))
	require.NoError(t, err)
	assert.Equal(t, EvUserJoin, f.Event)
	assert.Nil(t, f.Data)
}

func TestMarshalFrameRoundTrip(t *testing.T) {
	raw := MarshalFrame(EvUserOnline, PresencePayload{UserID: "alice"})
	require.NotNil(t, raw)

	var f Frame
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, EvUserOnline, f.Event)
	assert.Equal(t, "alice", f.Data["userId"])
}

// Browser clients send channel ids as JSON numbers; the weak decoder must
// still land them in the string fields.
func TestRoomPayloadDecodesNumericIDs(t *testing.T) {
	p, err := decode.DecodeMap[RoomPayload](map[string]any{"channelId": float64(42)})
	require.NoError(t, err)
	assert.Equal(t, ChannelTopic("42"), p.Topic())
}

func TestSendMessagePayloadIgnoresUnknownFields(t *testing.T) {
	p, err := decode.DecodeMap[SendMessagePayload](map[string]any{
		"channelId": "1",
		"content":   "hi",
		"clientTs":  1700000000,
	})
	require.NoError(t, err)
	assert.Equal(t, "1", p.ChannelID)
	assert.Equal(t, "hi", p.Content)
}
