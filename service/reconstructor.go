package service

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Reconstructor 视频 → 3D 世界重建。真实模式调用外部重建服务，
// 失败时落回占位资产，重建阶段从不向上抛不可恢复错误。
type Reconstructor struct {
	ServiceURL string
	Timeout    time.Duration
}

func NewReconstructor(serviceURL string, timeoutSeconds int) *Reconstructor {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 300
	}
	return &Reconstructor{
		ServiceURL: serviceURL,
		Timeout:    time.Duration(timeoutSeconds) * time.Second,
	}
}

// Reconstruct 从视频重建 3D 资产，返回资产本地路径。视频缺失返回 NotFound。
func (r *Reconstructor) Reconstruct(videoPath, outputDir, format string) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", Wrap(KindNotFound, "Video file not found: "+videoPath, err)
	}
	if format == "" {
		format = "splat"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", Wrap(KindUnknown, "create reconstruction dir failed", err)
	}

	outputPath := filepath.Join(outputDir, "output."+format)
	log.Printf("[Recon] Starting 3D reconstruction: %s -> %s", videoPath, outputPath)

	if r.ServiceURL != "" {
		if err := r.callService(videoPath, outputPath, format); err != nil {
			log.Printf("[Recon] 重建服务调用失败，落回占位资产: %v", err)
			if err := writePlaceholderAsset(videoPath, outputPath); err != nil {
				return "", err
			}
		}
	} else {
		if err := writePlaceholderAsset(videoPath, outputPath); err != nil {
			return "", err
		}
	}

	log.Printf("[Recon] Reconstruction complete: %s", outputPath)
	return outputPath, nil
}

// callService 以 multipart 上传视频到重建服务，响应体即资产内容
func (r *Reconstructor) callService(videoPath, outputPath, format string) error {
	f, err := os.Open(videoPath)
	if err != nil {
		return fmt.Errorf("open video failed: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("video", filepath.Base(videoPath))
	if err != nil {
		return fmt.Errorf("create form file failed: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy video into form failed: %w", err)
	}
	if err := writer.WriteField("format", format); err != nil {
		return fmt.Errorf("write format field failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer failed: %w", err)
	}

	client := &http.Client{Timeout: r.Timeout}
	resp, err := client.Post(r.ServiceURL+"/reconstruct", writer.FormDataContentType(), &body)
	if err != nil {
		return fmt.Errorf("reconstruction service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reconstruction service status: %d", resp.StatusCode)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create asset file failed: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("save asset file failed: %w", err)
	}
	return nil
}

// writePlaceholderAsset 写入占位 3D 资产文本
func writePlaceholderAsset(videoPath, outputPath string) error {
	content := fmt.Sprintf(`# Placeholder 3D Reconstruction
# Source video: %s
# Format: %s
# Generated: %s

PLACEHOLDER_3D_ASSET_DATA
`, filepath.Base(videoPath), filepath.Ext(outputPath), time.Now().Format("2006-01-02 15:04:05"))

	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return Wrap(KindUnknown, "write placeholder asset failed", err)
	}
	return nil
}
