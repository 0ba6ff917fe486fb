package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	GuestCookieName        = "ds_guest"
	GuestSessionHeader     = "X-Guest-Session"
	ContextGuestSessionKey = "guest_session"
)

// GuestSession gives every guest a stable opaque id. An explicit header wins
// over the cookie so a remote viewer can forward its own guest's id.
func GuestSession(ttl time.Duration) gin.HandlerFunc {
	maxAge := int(ttl / time.Second)
	return func(c *gin.Context) {
		sid := c.GetHeader(GuestSessionHeader)
		if _, err := uuid.Parse(sid); err != nil {
			sid = ""
		}
		if sid == "" {
			if cookie, err := c.Cookie(GuestCookieName); err == nil {
				if _, err := uuid.Parse(cookie); err == nil {
					sid = cookie
				}
			}
		}
		if sid == "" {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(GuestCookieName, sid, maxAge, "/", "", c.Request.TLS != nil, true)
		}
		c.Set(ContextGuestSessionKey, sid)
		c.Next()
	}
}

func GuestSessionID(c *gin.Context) string {
	return c.GetString(ContextGuestSessionKey)
}
