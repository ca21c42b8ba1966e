package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers availability routes under the resource path.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	g.GET("/resources/:id/availability", h.Slots)
}
