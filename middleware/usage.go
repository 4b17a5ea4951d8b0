package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/audioproof/audioproof/utils"
)

// UsageRecorder counts successful API calls per day and route in redis, used
// by the admin stats dashboard. Best-effort: redis being down never affects
// the request.
func UsageRecorder() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}
		// FullPath collapses path params (/verifications/:id) so the key space
		// stays bounded.
		route := c.FullPath()
		if route == "" || !strings.HasPrefix(route, "/api/") {
			return
		}

		rc := utils.GetRedis()
		if rc == nil {
			return
		}
		key := "usage:" + time.Now().Format("2006-01-02") + ":" + c.Request.Method + ":" + route
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		pipe := rc.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, 48*time.Hour)
		_, _ = pipe.Exec(ctx)
	}
}
