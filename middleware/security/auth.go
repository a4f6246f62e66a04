package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"CampusChat/tools/errs"
	jwtlib "CampusChat/tools/security"
)

// Context keys set for downstream handlers.
const (
	CtxUserIDKey  = "userID"
	CtxTokenKey   = "authorization"
	CtxIsAdminKey = "isAdmin"
)

// ScopeAdmin marks tokens of moderators; issued at login.
const ScopeAdmin = "admin"

type Options struct {
	JWT jwtlib.Options

	// HeaderToken is the request header carrying the token. A "Bearer "
	// prefix is stripped whichever header the token came from, so standard
	// Authorization: Bearer xxx requests are always accepted.
	HeaderToken string
}

func DefaultOptions(jwt jwtlib.Options) *Options {
	return &Options{JWT: jwt, HeaderToken: "authorization"}
}

// Middleware verifies the bearer token and binds the calling user id into
// the gin context. Requests without a valid token are rejected.
func Middleware(opts *Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
		if token == "" {
			token = strings.TrimSpace(c.GetHeader("Authorization"))
		}
		if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
			token = strings.TrimSpace(token[7:])
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		claims, err := jwtlib.Verify(opts.JWT, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenExpired)
			return
		}

		c.Set(CtxTokenKey, token)
		c.Set(CtxUserIDKey, claims.Subject())
		c.Set(CtxIsAdminKey, claims.HasScope(ScopeAdmin))
		c.Next()
	}
}
