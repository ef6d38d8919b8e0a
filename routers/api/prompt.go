package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// 提示词质量分析：POST /v1/api/analyze_prompt
func AnalyzePrompt(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required", "success": false})
		return
	}

	analysis := Pipeline.Reviser.AnalyzePromptQuality(prompt)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"analysis": analysis,
	})
}

// 提示词变体推荐：POST /v1/api/alternatives
func SuggestAlternatives(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
		Count  int    `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"alternatives": Pipeline.Reviser.SuggestAlternatives(prompt, req.Count),
	})
}
