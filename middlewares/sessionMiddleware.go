package middlewares

import (
	"context"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware copies the register scope headers into the request
// context. X-Shop-Id is the operator's active shop (the old front end
// kept it in localStorage); X-Session-Id scopes the register cart to
// one device session. Routes that need them validate their presence.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if shopId := c.Request.Header.Get("X-Shop-Id"); shopId != "" {
			ctx = context.WithValue(ctx, utils.ContextKeyShopId, shopId)
		}
		if sessionId := c.Request.Header.Get("X-Session-Id"); sessionId != "" {
			ctx = context.WithValue(ctx, utils.ContextKeySessionId, sessionId)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
