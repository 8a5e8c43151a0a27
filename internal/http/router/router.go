package router

import (
	"github.com/gin-gonic/gin"

	"vibez.app/engine/core/config"
	"vibez.app/engine/internal/engine"
	"vibez.app/engine/internal/http/handler"
	"vibez.app/engine/internal/queue"
	"vibez.app/engine/internal/service"
)

type RouterConfig struct {
	Dashboards config.DashboardConfig
}

func SetupRoutes(router *gin.Engine, eng *engine.Engine, services *service.Services, producer queue.Producer, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		dashboardHandler := handler.NewDashboardHandler(eng, cfg.Dashboards)
		DashboardRouter(v1.Group("/dashboard"), dashboardHandler)

		searchHandler := handler.NewSearchHandler(eng, cfg.Dashboards)
		v1.GET("/search", searchHandler.Search)

		reportHandler := handler.NewReportHandler(eng)
		ReportRouter(v1.Group("/reports"), reportHandler)

		chatHandler := handler.NewChatHandler(services.Chat())
		v1.POST("/chat", chatHandler.Ask)

		synthesisHandler := handler.NewSynthesisHandler(producer)
		v1.POST("/synthesis/run", synthesisHandler.Run)
	}
}
