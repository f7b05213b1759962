package fzd

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter wires the daemon API
func SetupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Health)

	api := r.Group("/api/v1")
	{
		cases := api.Group("/cases")
		{
			cases.POST("", h.SubmitCase)
			cases.GET("", h.ListCases)
			cases.GET("/:id", h.GetCase)
			cases.GET("/:id/files", h.GetCaseFiles)
			cases.POST("/:id/cancel", h.CancelCase)
		}
	}

	return r
}
