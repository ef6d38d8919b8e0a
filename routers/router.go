package routers

import (
	"net/http"

	"WorldDirector-server/config"
	"WorldDirector-server/routers/api"

	"github.com/gin-gonic/gin"
)

func InitRouter() *gin.Engine {
	r := gin.Default()
	r.Static("/data", config.AppConfig.Pipeline.DataRoot)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	v1 := r.Group("/v1/api")
	{
		v1.POST("/generate", api.Generate)
		v1.GET("/generations/:prompt_hash", api.GetGeneration)
		v1.GET("/progress/:prompt_hash", api.GetProgress)
		v1.POST("/reconstruct", api.Reconstruct)
		v1.POST("/run_agent", api.RunAgentTest)
		v1.POST("/analyze_prompt", api.AnalyzePrompt)
		v1.POST("/alternatives", api.SuggestAlternatives)
		v1.POST("/upload", api.UploadVideo)
	}
	r.GET("/progress/:prompt_hash/wss", api.ProgressWebSocket)
	return r
}
