// Package api is the HTTP front of the mission engine. It translates the
// JSON surface into orchestrator calls; no mission logic lives here.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"devforge/internal/orchestrator"
)

// NewRouter builds the gin engine with all routes attached.
func NewRouter(orch *orchestrator.Orchestrator) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
	}))

	h := NewHandlers(orch)

	v1 := r.Group("/v1")
	{
		v1.POST("/missions", h.CreateMission)
		v1.GET("/missions", h.ListMissions)
		v1.GET("/missions/:id", h.GetMission)
		v1.POST("/missions/:id/step", h.ExecuteStep)
		v1.GET("/missions/:id/logs", h.GetLogs)
		v1.GET("/missions/:id/archive", h.DownloadArchive)
	}

	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
