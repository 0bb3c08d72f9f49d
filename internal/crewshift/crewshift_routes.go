package crewshift

import (
	"go-crewperf/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	shifts := r.Group("/crew-shifts")
	{
		shifts.POST("/approve", middleware.RateLimitByActor(2, 5), handler.Approve)
		shifts.POST("/reject", middleware.RateLimitByActor(2, 5), handler.Reject)
		shifts.POST("/sync", handler.MarkSynced)
	}

	r.GET("/jobs/:id/crew-shifts", handler.ListByJob)
}
