package message

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"CampusChat/logger"
	midsec "CampusChat/middleware/security"
	msgmodel "CampusChat/module/message/model"
	"CampusChat/service/chat"
	"CampusChat/tools/errs"
)

// Handler serves the message REST surface: history reads plus API-triggered
// send/delete, which go through the same dispatcher as socket events.
type Handler struct {
	store *Store
	users chat.UserDirectory
	srv   *chat.Server
}

func NewHandler(store *Store, users chat.UserDirectory, srv *chat.Server) *Handler {
	return &Handler{store: store, users: users, srv: srv}
}

// ChannelHistory GET /api/messages/channel/:channelId
func (h *Handler) ChannelHistory(c *gin.Context) {
	h.history(c, chat.ChannelTopic(c.Param("channelId")))
}

// GroupHistory GET /api/messages/group/:groupChatId
func (h *Handler) GroupHistory(c *gin.Context) {
	h.history(c, chat.GroupTopic(c.Param("groupChatId")))
}

func (h *Handler) history(c *gin.Context, t chat.Topic) {
	msgs, err := h.store.History(c.Request.Context(), t.Key(), 100)
	if err != nil {
		logger.Errorf("[message] history failed topic=%s err=%v", t.Key(), err)
		c.JSON(http.StatusInternalServerError, errs.ErrPersistence)
		return
	}
	h.enrich(c.Request.Context(), msgs)
	c.JSON(http.StatusOK, msgs)
}

// enrich joins author display fields in, one directory lookup per distinct
// author. Lookup failures leave the bare record; history must not 500 over
// a missing avatar.
func (h *Handler) enrich(ctx context.Context, msgs []msgmodel.Message) {
	type info struct{ username, avatar string }
	seen := make(map[string]info)
	for i := range msgs {
		in, ok := seen[msgs[i].AuthorID]
		if !ok {
			username, avatar, err := h.users.DisplayInfo(ctx, msgs[i].AuthorID)
			if err != nil {
				logger.Warnf("[message] enrich failed user=%s err=%v", msgs[i].AuthorID, err)
			}
			in = info{username: username, avatar: avatar}
			seen[msgs[i].AuthorID] = in
		}
		msgs[i].Username = in.username
		msgs[i].AvatarURL = in.avatar
	}
}

type sendRequest struct {
	ChannelID   string `json:"channelId"`
	GroupChatID string `json:"groupChatId"`
	ToUserID    string `json:"toUserId"`
	Content     string `json:"content"`
}

// Send handles POST /api/messages, the API-triggered write path. Returns
// the persisted message to the caller.
func (h *Handler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	authorID := c.GetString(midsec.CtxUserIDKey)

	var t chat.Topic
	switch {
	case req.ChannelID != "":
		t = chat.ChannelTopic(req.ChannelID)
	case req.GroupChatID != "":
		t = chat.GroupTopic(req.GroupChatID)
	case req.ToUserID != "":
		t = chat.DirectTopic(authorID, req.ToUserID)
	}

	msg, err := h.srv.Dispatcher().Submit(c.Request.Context(), t, authorID, req.Content)
	if err != nil {
		c.JSON(statusFor(err), codeErr(err))
		return
	}
	c.JSON(http.StatusOK, msg)
}

// Remove DELETE /api/messages/:id. The privileged flag comes from the admin
// scope the auth middleware extracted from the token.
func (h *Handler) Remove(c *gin.Context) {
	requester := c.GetString(midsec.CtxUserIDKey)
	privileged := c.GetBool(midsec.CtxIsAdminKey)
	if err := h.srv.Dispatcher().Delete(c.Request.Context(), c.Param("id"), requester, privileged); err != nil {
		c.JSON(statusFor(err), codeErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func codeErr(err error) errs.CodeError {
	var ce errs.CodeError
	if errors.As(err, &ce) {
		return ce
	}
	return errs.ServerInternalError
}

func statusFor(err error) int {
	switch {
	case errs.ErrValidation.Is(err):
		return http.StatusBadRequest
	case errs.ErrAuthorization.Is(err):
		return http.StatusForbidden
	case errs.ErrRecordNotFound.Is(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
