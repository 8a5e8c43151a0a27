package router

import (
	"github.com/gin-gonic/gin"

	"vibez.app/engine/internal/http/handler"
)

func DashboardRouter(router *gin.RouterGroup, handler *handler.DashboardHandler) {
	router.GET("/contributions", handler.Contributions)
	router.GET("/radar", handler.Radar)
	router.GET("/stats", handler.Stats)
}
