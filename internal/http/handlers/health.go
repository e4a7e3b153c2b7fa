package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @ID       health
// @Summary  Liveness probe
// @Tags     Health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready returns a readiness probe. ping checks the record store; a nil ping
// (persistence disabled) is always ready.
//
// @ID       ready
// @Summary  Readiness probe
// @Tags     Health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Failure  503  {object}  handlers.ErrorResponse
// @Router   /ready [get]
func Ready(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "database unreachable")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
