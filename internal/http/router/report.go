package router

import (
	"github.com/gin-gonic/gin"

	"vibez.app/engine/internal/http/handler"
)

func ReportRouter(router *gin.RouterGroup, handler *handler.ReportHandler) {
	router.GET("/latest", handler.Latest)
	router.GET("/previous", handler.Previous)
}
