package guild

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	guildsrv "CampusChat/module/guild/service"
	"CampusChat/tools/errs"
)

type Handler struct {
	guilds *guildsrv.Service
}

func NewHandler(guilds *guildsrv.Service) *Handler {
	return &Handler{guilds: guilds}
}

// List GET /api/servers
func (h *Handler) List(c *gin.Context) {
	servers, err := h.guilds.ListServers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, servers)
}

// Get GET /api/servers/:id
func (h *Handler) Get(c *gin.Context) {
	sv, err := h.guilds.GetServer(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sv)
}

// Channels GET /api/servers/:id/channels
func (h *Handler) Channels(c *gin.Context) {
	chs, err := h.guilds.Channels(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chs)
}

// Join POST /api/servers/:id/join
func (h *Handler) Join(c *gin.Context) {
	if err := h.guilds.Join(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// OfUser GET /api/servers/user/:userId
func (h *Handler) OfUser(c *gin.Context) {
	servers, err := h.guilds.ServersOf(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, servers)
}

type createGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}

// CreateGroup POST /api/messages/group-chat
func (h *Handler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	// the creator is always a member
	if me := c.GetString("userID"); me != "" {
		req.MemberIDs = append(req.MemberIDs, me)
	}
	gc, err := h.guilds.CreateGroupChat(c.Request.Context(), req.Name, req.MemberIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "groupChatId": gc.ID})
}

// GroupsOfUser GET /api/messages/user/:userId/group-chats
func (h *Handler) GroupsOfUser(c *gin.Context) {
	gcs, err := h.guilds.GroupChatsOf(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gcs)
}

func (h *Handler) fail(c *gin.Context, err error) {
	var ce errs.CodeError
	if !errors.As(err, &ce) {
		ce = errs.ServerInternalError
	}
	switch {
	case errs.ErrValidation.Is(err):
		c.JSON(http.StatusBadRequest, ce)
	case errs.ErrRecordNotFound.Is(err):
		c.JSON(http.StatusNotFound, ce)
	default:
		c.JSON(http.StatusInternalServerError, ce)
	}
}
