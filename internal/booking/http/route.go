package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/bookings")
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("/hold", h.CreateHold)
		group.POST("/:id/confirm", h.Confirm)
		group.POST("/:id/cancel", h.Cancel)
		group.POST("/:id/complete", h.Complete)
		group.POST("/:id/no-show", h.MarkNoShow)
	}
}
