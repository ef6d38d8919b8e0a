package api

import (
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"WorldDirector-server/config"
	"WorldDirector-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 视频上传：POST /v1/api/upload
// 用户可以上传自己的视频来测试 3D 重建
func UploadVideo(c *gin.Context) {
	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No video file provided", "success": false})
		return
	}

	// 文件名只保留基础名并加 uuid 前缀，避免路径穿越和重名覆盖
	base := filepath.Base(file.Filename)
	base = strings.ReplaceAll(base, "..", "")
	filename := uuid.NewString()[:8] + "_" + base

	uploadDir := filepath.Join(config.AppConfig.Pipeline.DataRoot, "uploads")
	localPath := filepath.Join(uploadDir, filename)

	if err := c.SaveUploadedFile(file, localPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存上传文件失败: " + err.Error(), "success": false})
		return
	}

	log.Printf("Video uploaded successfully: %s", filename)

	// 同步上传到 MinIO（失败不影响本地可用性）
	var remoteURL string
	if service.MinioClient != nil {
		if u, err := service.UploadArtifact(localPath, "uploads/"+filename); err != nil {
			log.Printf("上传 MinIO 失败（忽略）: %v", err)
		} else {
			remoteURL = u
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"filename": filename,
		"filepath": localPath,
		"url":      "/" + filepath.ToSlash(localPath),
		"oss_url":  remoteURL,
	})
}
