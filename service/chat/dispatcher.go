package chat

import (
	"context"
	"unicode/utf8"

	"CampusChat/logger"
	msgmodel "CampusChat/module/message/model"
	"CampusChat/tools/errs"
)

// MessageStore is the durable message log. Implementations must assign the
// id and timestamp on insert and must not broadcast anything themselves.
type MessageStore interface {
	Insert(ctx context.Context, topicKey, authorID, content string) (*msgmodel.Message, error)
	AuthorOf(ctx context.Context, messageID string) (string, error)
	Delete(ctx context.Context, messageID string) (bool, error)
}

// UserDirectory resolves display fields for broadcast enrichment.
type UserDirectory interface {
	DisplayInfo(ctx context.Context, userID string) (username, avatarURL string, err error)
}

// Emitter is the delivery surface the dispatcher and presence coordinator
// write to. The server implements it on top of the fan-out pool and, when
// configured, the cross-node bridge; tests substitute a recorder.
type Emitter interface {
	EmitRoom(t Topic, event string, data any)
	EmitRoomExcept(t Topic, exceptConnID, event string, data any)
	EmitGlobal(event string, data any)
	EmitTo(c *Client, event string, data any)
}

// Dispatcher orchestrates the message write path:
// validate -> persist -> enrich -> broadcast.
type Dispatcher struct {
	store  MessageStore
	users  UserDirectory
	rooms  *Rooms
	emit   Emitter
	maxLen int // maximum content length in runes
}

func NewDispatcher(store MessageStore, users UserDirectory, rooms *Rooms, emit Emitter, maxLen int) *Dispatcher {
	if maxLen <= 0 {
		maxLen = 4000
	}
	return &Dispatcher{store: store, users: users, rooms: rooms, emit: emit, maxLen: maxLen}
}

// Submit persists a message and broadcasts it to the topic's subscribers as
// resolved at the moment of persistence success. A connection joining after
// persist but before broadcast may miss the frame; it re-fetches history on
// join. No broadcast ever happens for a message that failed to persist, and
// a failed broadcast never rolls persistence back.
func (d *Dispatcher) Submit(ctx context.Context, t Topic, authorID, content string) (*msgmodel.Message, error) {
	if t.IsZero() {
		return nil, errs.ErrValidation.WithDetail("missing topic")
	}
	if authorID == "" {
		return nil, errs.ErrValidation.WithDetail("missing author")
	}
	if content == "" {
		return nil, errs.ErrValidation.WithDetail("empty content")
	}
	if utf8.RuneCountInString(content) > d.maxLen {
		return nil, errs.ErrValidation.WithDetail("content too long")
	}

	msg, err := d.store.Insert(ctx, t.Key(), authorID, content)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg("insert message", "topic", t.Key(), "err", err)
	}

	// Display fields are best effort: a directory outage must not hold a
	// persisted message back from delivery.
	if username, avatar, derr := d.users.DisplayInfo(ctx, authorID); derr == nil {
		msg.Username = username
		msg.AvatarURL = avatar
	} else {
		logger.Warnf("[dispatcher] enrich failed user=%s err=%v", authorID, derr)
	}

	d.emit.EmitRoom(t, EvNewMessage, msg)
	return msg, nil
}

// Delete removes a message if the requester authored it or is privileged,
// then broadcasts message_deleted. Deletions are announced globally, as the
// original client filters by locally-displayed message ids.
func (d *Dispatcher) Delete(ctx context.Context, messageID, requesterID string, privileged bool) error {
	authorID, err := d.store.AuthorOf(ctx, messageID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return err
		}
		return errs.ErrPersistence.WrapMsg("author lookup", "id", messageID, "err", err)
	}
	if requesterID != authorID && !privileged {
		logger.Infof("[dispatcher] delete denied id=%s requester=%s author=%s", messageID, requesterID, authorID)
		return errs.ErrAuthorization.WithDetail("not the author")
	}

	ok, err := d.store.Delete(ctx, messageID)
	if err != nil {
		return errs.ErrPersistence.WrapMsg("delete message", "id", messageID, "err", err)
	}
	if !ok {
		return errs.ErrRecordNotFound.WithDetail("message already gone")
	}

	d.emit.EmitGlobal(EvMessageDeleted, MessageDeletedPayload{MessageID: messageID})
	return nil
}
