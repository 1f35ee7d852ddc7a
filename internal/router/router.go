package router

import (
	"github.com/gin-gonic/gin"

	"markbench/internal/handler"
	"markbench/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	gradingH *handler.GradingHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	grading := v1.Group("/grading")
	grading.POST("/batch", gradingH.GradeBatch)
	grading.GET("/session/summary", gradingH.SessionSummary)
	grading.GET("/sessions/:id/results", gradingH.SessionResults)
	grading.GET("/sessions/:id/export", gradingH.ExportSession)

	return r
}
