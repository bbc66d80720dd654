package middleware

import (
	"strings"

	"CareGene/tools/errs"

	"github.com/gin-gonic/gin"
)

// Identity headers written by the upstream gateway. The gateway has
// already authenticated the caller; this layer only extracts.
const (
	HeaderUserID     = "X-User-Id"
	HeaderUserEmail  = "X-User-Email"
	HeaderUserName   = "X-User-Name"
	HeaderUserAvatar = "X-User-Avatar"
)

const ctxUserKey = "caregene/user"

// UserRecord is the normalized acting-user identity attached to every
// request. Id is mandatory; the rest is best-effort profile data.
type UserRecord struct {
	ID     string `json:"id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Identity extracts the user record from trusted request metadata. A
// missing id is a hard precondition failure, not a recoverable default.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if id == "" {
			WriteError(c, errs.ErrMissingIdentity.WrapMsg("header absent", "header", HeaderUserID))
			c.Abort()
			return
		}
		c.Set(ctxUserKey, UserRecord{
			ID:     id,
			Email:  strings.TrimSpace(c.GetHeader(HeaderUserEmail)),
			Name:   strings.TrimSpace(c.GetHeader(HeaderUserName)),
			Avatar: strings.TrimSpace(c.GetHeader(HeaderUserAvatar)),
		})
		c.Next()
	}
}

// CurrentUser returns the record set by Identity. The bool is false on
// routes that skipped the identity middleware.
func CurrentUser(c *gin.Context) (UserRecord, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return UserRecord{}, false
	}
	u, ok := v.(UserRecord)
	return u, ok
}
