package api

import (
	"net/http"

	"WorldDirector-server/service"

	"github.com/gin-gonic/gin"
)

// Pipeline 由 main.go 装配后注入
var Pipeline *service.Pipeline

func Init(p *service.Pipeline) {
	Pipeline = p
}

// respondError 按错误分类映射状态码，只透出可读信息
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindTimeout:
		status = http.StatusRequestTimeout
	case service.KindExternal:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error(), "success": false})
}
