package chat

import (
	"encoding/json"
	"fmt"

	"CampusChat/logger"
)

// Socket event names, shared with the browser client.
const (
	EvUserJoin       = "user_join"
	EvJoinChannel    = "join_channel"
	EvLeaveChannel   = "leave_channel"
	EvUserTyping     = "user_typing"
	EvUserStopTyping = "user_stop_typing"
	EvSendMessage    = "send_message"
	EvDeleteMessage  = "delete_message"

	EvUserOnline     = "user_online"
	EvUserOffline    = "user_offline"
	EvNewMessage     = "new_message"
	EvMessageDeleted = "message_deleted"
	EvError          = "error"
)

// Frame is the wire envelope: {"event": "...", "data": {...}}.
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	if f.Event == "" {
		return nil, fmt.Errorf("frame missing event")
	}
	return &f, nil
}

// MarshalFrame builds an outbound envelope. Payload types here are all
// marshal-safe; a failure is a programming error, logged and swallowed.
func MarshalFrame(event string, data any) []byte {
	b, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data,omitempty"`
	}{Event: event, Data: data})
	if err != nil {
		logger.Errorf("[frames] marshal %s failed: %v", event, err)
		return nil
	}
	return b
}

// ---- inbound payloads ----

type UserJoinPayload struct {
	UserID string `json:"userId"`
}

// RoomPayload selects a topic for join/leave; exactly one id should be set.
type RoomPayload struct {
	ChannelID   string `json:"channelId"`
	GroupChatID string `json:"groupChatId"`
}

func (p RoomPayload) Topic() Topic {
	if p.ChannelID != "" {
		return ChannelTopic(p.ChannelID)
	}
	if p.GroupChatID != "" {
		return GroupTopic(p.GroupChatID)
	}
	return Topic{}
}

type TypingPayload struct {
	ChannelID   string `json:"channelId"`
	GroupChatID string `json:"groupChatId"`
	UserID      string `json:"userId"`
	Username    string `json:"username"`
}

type SendMessagePayload struct {
	ChannelID   string `json:"channelId"`
	GroupChatID string `json:"groupChatId"`
	ToUserID    string `json:"toUserId"` // direct message peer
	UserID      string `json:"userId"`
	Content     string `json:"content"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	IsAdmin   bool   `json:"isAdmin"`
}

// ---- outbound payloads ----

type PresencePayload struct {
	UserID string `json:"userId"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type ErrorPayload struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
