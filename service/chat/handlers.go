package chat

import (
	"context"
	"errors"
	"time"

	"CampusChat/logger"
	"CampusChat/tools/decode"
	"CampusChat/tools/errs"
)

const eventTimeout = 10 * time.Second

// handleFrame routes one inbound socket event. All failures are scoped to
// this single event: validation/persistence/authorization problems are
// answered on the originating connection only, never broadcast, and nothing
// here may crash the process.
func (s *Server) handleFrame(client *Client, f *Frame) {
	switch f.Event {
	case EvUserJoin:
		s.onUserJoin(client, f)
	case EvJoinChannel:
		s.onJoinRoom(client, f)
	case EvLeaveChannel:
		s.onLeaveRoom(client, f)
	case EvUserTyping, EvUserStopTyping:
		s.onTyping(client, f)
	case EvSendMessage:
		s.onSendMessage(client, f)
	case EvDeleteMessage:
		s.onDeleteMessage(client, f)
	default:
		logger.Infof("[handlers] no handler for event=%s conn=%s", f.Event, client.ConnID)
	}
}

func (s *Server) onUserJoin(client *Client, f *Frame) {
	p, err := decode.DecodeMap[UserJoinPayload](f.Data)
	if err != nil || p.UserID == "" {
		s.replyError(client, errs.ErrValidation.WithDetail("user_join requires userId"))
		return
	}
	// Rebinding a live connection to another user tears the old identity
	// down first. The registry indexes by the user id at registration time,
	// so the old binding must be unregistered before UserID changes, and the
	// old user goes offline if this was their last connection.
	if client.UserID != "" && client.UserID != p.UserID {
		s.pres.OnDisconnect(client.ConnID)
	}
	client.UserID = p.UserID
	s.pres.OnConnect(client)
}

func (s *Server) onJoinRoom(client *Client, f *Frame) {
	p, err := decode.DecodeMap[RoomPayload](f.Data)
	if err != nil {
		s.replyError(client, errs.ErrValidation.WithDetail("bad room payload"))
		return
	}
	t := p.Topic()
	if t.IsZero() {
		s.replyError(client, errs.ErrValidation.WithDetail("join requires channelId or groupChatId"))
		return
	}
	s.rooms.Join(client.ConnID, t)
}

func (s *Server) onLeaveRoom(client *Client, f *Frame) {
	p, err := decode.DecodeMap[RoomPayload](f.Data)
	if err != nil {
		return
	}
	if t := p.Topic(); !t.IsZero() {
		s.rooms.Leave(client.ConnID, t)
	}
}

// onTyping forwards the indicator verbatim to the other subscribers of the
// topic. Typing events are never persisted.
func (s *Server) onTyping(client *Client, f *Frame) {
	p, err := decode.DecodeMap[TypingPayload](f.Data)
	if err != nil {
		return
	}
	t := RoomPayload{ChannelID: p.ChannelID, GroupChatID: p.GroupChatID}.Topic()
	if t.IsZero() {
		return
	}
	if p.UserID == "" {
		p.UserID = client.UserID
	}
	s.EmitRoomExcept(t, client.ConnID, f.Event, p)
}

func (s *Server) onSendMessage(client *Client, f *Frame) {
	p, err := decode.DecodeMap[SendMessagePayload](f.Data)
	if err != nil {
		s.replyError(client, errs.ErrValidation.WithDetail("bad message payload"))
		return
	}
	authorID := p.UserID
	if authorID == "" {
		authorID = client.UserID
	}
	t := sendTopic(p, authorID)

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	// Socket-triggered sends are fire-and-forget for the happy path; the
	// sender learns the outcome through the room broadcast, errors come back
	// on its own connection.
	if _, err := s.disp.Submit(ctx, t, authorID, p.Content); err != nil {
		s.replyError(client, err)
	}
}

func sendTopic(p *SendMessagePayload, authorID string) Topic {
	switch {
	case p.ChannelID != "":
		return ChannelTopic(p.ChannelID)
	case p.GroupChatID != "":
		return GroupTopic(p.GroupChatID)
	case p.ToUserID != "" && authorID != "":
		return DirectTopic(authorID, p.ToUserID)
	}
	return Topic{}
}

func (s *Server) onDeleteMessage(client *Client, f *Frame) {
	p, err := decode.DecodeMap[DeleteMessagePayload](f.Data)
	if err != nil || p.MessageID == "" {
		s.replyError(client, errs.ErrValidation.WithDetail("delete requires messageId"))
		return
	}
	requester := p.UserID
	if requester == "" {
		requester = client.UserID
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if err := s.disp.Delete(ctx, p.MessageID, requester, p.IsAdmin); err != nil {
		s.replyError(client, err)
	}
}

func (s *Server) replyError(client *Client, err error) {
	var ce errs.CodeError
	if !errors.As(err, &ce) {
		ce = errs.ServerInternalError
	}
	s.EmitTo(client, EvError, ErrorPayload{Code: ce.Code, Msg: ce.Msg})
}
