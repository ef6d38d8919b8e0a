package api

import (
	"log"
	"net/http"

	"WorldDirector-server/models"
	"WorldDirector-server/service"

	"github.com/gin-gonic/gin"
)

// 生成接口：POST /v1/api/generate
// async=true 时任务入队后直接返回 prompt_hash，调用方轮询进度接口
func Generate(c *gin.Context) {
	var req struct {
		Prompt     string `json:"prompt"`
		NumTakes   int    `json:"num_takes"`
		UseRealAPI bool   `json:"use_real_api"`
		Async      bool   `json:"async"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}
	if req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required", "success": false})
		return
	}

	log.Printf("Received generation request: '%s' (use_real_api=%v, async=%v)", req.Prompt, req.UseRealAPI, req.Async)

	if req.Async {
		if err := service.EnqueueGenerate(service.GeneratePayload{
			Prompt:   req.Prompt,
			NumTakes: req.NumTakes,
			UseReal:  req.UseRealAPI,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "任务入队失败: " + err.Error(), "success": false})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"success":     true,
			"prompt_hash": service.PromptHash(req.Prompt),
			"message":     "生成任务已入队，可通过进度接口查询",
		})
		return
	}

	rec, err := Pipeline.Generate(c.Request.Context(), req.Prompt, req.NumTakes, req.UseRealAPI)
	if err != nil {
		respondError(c, err)
		return
	}

	if models.GormDB != nil {
		if err := models.UpsertGeneration(models.GormDB, rec); err != nil {
			log.Printf("生成记录落库失败: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"prompt_hash": rec.PromptHash,
		"prompt":      rec.Prompt,
		"takes":       rec.Takes,
		"mode":        rec.Mode,
		"cached":      rec.Cached,
	})
}

// 查询生成记录：GET /v1/api/generations/:prompt_hash
// 优先走文件缓存校验（任一产物缺失按未命中），兜底查库
func GetGeneration(c *gin.Context) {
	promptHash := c.Param("prompt_hash")

	if rec := Pipeline.Cache.Lookup(promptHash); rec != nil {
		rec.Cached = true
		c.JSON(http.StatusOK, gin.H{"success": true, "generation": rec})
		return
	}

	if models.GormDB != nil {
		if rec, err := models.GetGenerationByHash(models.GormDB, promptHash); err == nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "generation": rec})
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "generation not found: " + promptHash, "success": false})
}
