package chat

import (
	"fmt"
	"strings"
)

type TopicKind int

const (
	TopicChannel TopicKind = iota
	TopicGroup
	TopicDirect
)

// Topic identifies a broadcast scope: a channel, a group chat, or a
// direct-message pair. Comparable, so it can be used as a map key.
type Topic struct {
	Kind TopicKind
	A    string // channel id, group id, or the smaller user id of a pair
	B    string // the larger user id of a pair; empty otherwise
}

func ChannelTopic(channelID string) Topic {
	return Topic{Kind: TopicChannel, A: channelID}
}

func GroupTopic(groupChatID string) Topic {
	return Topic{Kind: TopicGroup, A: groupChatID}
}

// DirectTopic is order-independent: DirectTopic(a,b) == DirectTopic(b,a).
func DirectTopic(userA, userB string) Topic {
	if userA > userB {
		userA, userB = userB, userA
	}
	return Topic{Kind: TopicDirect, A: userA, B: userB}
}

func (t Topic) IsZero() bool { return t.A == "" }

// Key renders the room name used on the wire and as the persisted topic key.
func (t Topic) Key() string {
	switch t.Kind {
	case TopicChannel:
		return "channel-" + t.A
	case TopicGroup:
		return "group-" + t.A
	case TopicDirect:
		return "dm-" + t.A + "-" + t.B
	}
	return ""
}

// ParseTopicKey is the inverse of Key. Used when a room name arrives from
// another gateway node.
func ParseTopicKey(key string) (Topic, error) {
	switch {
	case strings.HasPrefix(key, "channel-"):
		return ChannelTopic(strings.TrimPrefix(key, "channel-")), nil
	case strings.HasPrefix(key, "group-"):
		return GroupTopic(strings.TrimPrefix(key, "group-")), nil
	case strings.HasPrefix(key, "dm-"):
		rest := strings.TrimPrefix(key, "dm-")
		parts := strings.SplitN(rest, "-", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return Topic{}, fmt.Errorf("bad dm topic key: %q", key)
		}
		return DirectTopic(parts[0], parts[1]), nil
	}
	return Topic{}, fmt.Errorf("unknown topic key: %q", key)
}
