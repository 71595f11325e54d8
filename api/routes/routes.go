package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/scanvault/orchestrator/api/handlers"
	"github.com/scanvault/orchestrator/api/middleware"
)

// SetupRoutes wires all API routes.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	processing := v1.Group("/processing")
	{
		processing.GET("/status", h.Processing.GetStatus)
		processing.GET("/documents/:documentId", h.Processing.GetDocumentStatus)
		processing.POST("/run", h.Processing.StartRun)
	}

	repair := v1.Group("/repair")
	{
		repair.POST("/run", h.Processing.StartRepair)
	}
}
