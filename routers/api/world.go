package api

import (
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"WorldDirector-server/models"

	"github.com/gin-gonic/gin"
)

// 3D 重建：POST /v1/api/reconstruct
func Reconstruct(c *gin.Context) {
	var req struct {
		PromptHash string `json:"prompt_hash"`
		VideoPath  string `json:"video_path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	log.Printf("Received reconstruction request for: %s", req.VideoPath)

	assetPath, err := Pipeline.Reconstruct(req.PromptHash, normalizeDataPath(req.VideoPath))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"asset_path": assetPath,
		"asset_url":  "/" + filepath.ToSlash(filepath.Clean(assetPath)),
		"format":     "splat",
	})
}

// agent 巡检 + 提示词修订：POST /v1/api/run_agent
func RunAgentTest(c *gin.Context) {
	var req struct {
		AssetPath string   `json:"asset_path"`
		Prompt    string   `json:"prompt"`
		Scenarios []string `json:"scenarios"`
		Salt      string   `json:"salt"` // 可选，显式打散两次独立运行
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	log.Printf("Received agent test request for: %s", req.AssetPath)

	result, revision, err := Pipeline.RunAgentTest(normalizeDataPath(req.AssetPath), req.Prompt, req.Scenarios, req.Salt)
	if err != nil {
		respondError(c, err)
		return
	}

	// 无违规直接短路，不触发修订
	revisedPrompt := req.Prompt
	explanation := "No issues detected."
	if revision != nil {
		revisedPrompt = revision.RevisedPrompt
		explanation = revision.Explanation

		if models.GormDB != nil {
			if err := models.CreateRevision(models.GormDB, revision); err != nil {
				log.Printf("修订记录落库失败: %v", err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"violations":     result.Violations,
		"metrics":        result.Metrics,
		"test_duration":  result.TestDuration,
		"revised_prompt": revisedPrompt,
		"explanation":    explanation,
	})
}

// normalizeDataPath 前端会传 /data/... 形式的 URL 路径，去掉前导斜杠转回本地相对路径
func normalizeDataPath(p string) string {
	if strings.HasPrefix(p, "/data/") {
		return strings.TrimPrefix(p, "/")
	}
	return p
}
