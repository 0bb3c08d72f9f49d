package performance

import (
	"go-crewperf/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/jobs/:id/performance", middleware.RateLimitByActor(5, 20), handler.GetPerformance)
}
