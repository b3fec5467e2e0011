package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/srhoton/step-alb-poc/internal/handlers"
	"github.com/srhoton/step-alb-poc/internal/logger"
)

// Recovery converts any panic into the generic 500 envelope. The cause is
// logged in full and never reaches the caller.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if log != nil {
					log.Error("Unexpected error", "path", c.Request.URL.Path, "panic", r)
				}
				handlers.RespondError(c, http.StatusInternalServerError, "Internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
