package size

import (
	"fmt"
	"net/http"

	"github.com/compozy/docchunk/engine/infra/server/router"
	"github.com/gin-gonic/gin"
)

// BodySizeLimiter limits the request body size for the route group. Requests
// announcing a larger body are rejected before it is read.
func BodySizeLimiter(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			router.RespondProblemWithCode(
				c,
				http.StatusRequestEntityTooLarge,
				router.ErrPayloadTooLargeCode,
				fmt.Sprintf("request body exceeds %d bytes", limit),
			)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
