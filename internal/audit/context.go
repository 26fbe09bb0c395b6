package audit

import (
	"github.com/gin-gonic/gin"
)

// Context identifies who performed an audited operation and from where.
// The zero value is the system actor.
type Context struct {
	UserID     *int64
	IPAddress  string
	UserAgent  string
	SessionKey string
}

// System is the actor used by CLI commands and background jobs.
var System = Context{}

// FromGin builds a Context from the values set by the JWT middleware. The IP
// honours forwarding headers only from the engine's trusted proxies.
func FromGin(c *gin.Context) Context {
	actx := Context{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int64); ok {
			actx.UserID = &id
		}
	}
	if v, ok := c.Get("jti"); ok {
		if jti, ok := v.(string); ok {
			actx.SessionKey = jti
		}
	}
	return actx
}
