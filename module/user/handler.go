package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	midsec "CampusChat/middleware/security"
	usermodel "CampusChat/module/user/model"
	usersrv "CampusChat/module/user/service"
	"CampusChat/service/chat"
	"CampusChat/tools/errs"
	security "CampusChat/tools/security"
)

type Handler struct {
	users *usersrv.Service
	srv   *chat.Server
	jwt   security.Options
}

func NewHandler(users *usersrv.Service, srv *chat.Server, jwt security.Options) *Handler {
	return &Handler{users: users, srv: srv, jwt: jwt}
}

type credentials struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	AvatarURL string `json:"avatarUrl"`
}

// Signup POST /api/auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	u, err := h.users.Create(c.Request.Context(), req.Username, req.Password, req.AvatarURL)
	if err != nil {
		h.fail(c, err)
		return
	}
	token, _, _, err := security.Generate(h.jwt, u.ID, scopesFor(u))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ServerInternalError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u, "token": token})
}

// Login POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	token, _, _, err := security.Generate(h.jwt, u.ID, scopesFor(u))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ServerInternalError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u, "token": token})
}

// scopesFor maps account flags onto token scopes; the auth middleware turns
// the admin scope back into the isAdmin context flag for moderation routes.
func scopesFor(u *usermodel.User) []string {
	if u.IsAdmin {
		return []string{midsec.ScopeAdmin}
	}
	return nil
}

// Get handles GET /api/users/:id: profile plus the gateway's presence view.
func (h *Handler) Get(c *gin.Context) {
	u, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := gin.H{"user": u, "online": h.srv.Presence().Online(u.ID)}
	if st, ok := h.srv.Presence().GetCustomStatus(u.ID); ok {
		resp["customStatus"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// Online GET /api/users/online
func (h *Handler) Online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"userIds": h.srv.Presence().OnlineUsers()})
}

type statusRequest struct {
	Text      string `json:"text"`
	ExpiresIn int64  `json:"expiresInSeconds"`
}

// SetStatus handles PUT /api/users/status: custom status for the calling user.
func (h *Handler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	userID := c.GetString(midsec.CtxUserIDKey)
	var expireAt time.Time
	if req.ExpiresIn > 0 {
		expireAt = time.Now().Add(time.Duration(req.ExpiresIn) * time.Second)
	}
	h.srv.Presence().SetCustomStatus(userID, req.Text, expireAt)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) fail(c *gin.Context, err error) {
	var ce errs.CodeError
	if !errors.As(err, &ce) {
		ce = errs.ServerInternalError
	}
	switch {
	case errs.ErrValidation.Is(err):
		c.JSON(http.StatusBadRequest, ce)
	case errs.ErrAuthorization.Is(err):
		c.JSON(http.StatusUnauthorized, ce)
	case errs.ErrRecordNotFound.Is(err):
		c.JSON(http.StatusNotFound, ce)
	default:
		c.JSON(http.StatusInternalServerError, ce)
	}
}
