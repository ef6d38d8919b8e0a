package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ProgressSink 生成阶段的进度回调 (status, percent, message)
type ProgressSink func(status string, progress int, message string)

// VideoGenerator 视频生成器。真实模式把提示词发给外部 worker 并轮询结果；
// worker 不可达或任务失败时静默降级为本地占位视频（模拟模式产物）。
type VideoGenerator struct {
	WorkerEndpoint string
	VideoDuration  int // 秒
	Resolution     string
	FPS            int
	client         *http.Client
}

func NewVideoGenerator(workerEndpoint string, duration int, resolution string, fps int) *VideoGenerator {
	return &VideoGenerator{
		WorkerEndpoint: workerEndpoint,
		VideoDuration:  duration,
		Resolution:     resolution,
		FPS:            fps,
		client:         &http.Client{},
	}
}

// GenerateTakes 为一个提示词生成 numTakes 条候选视频，返回本地文件路径（take_1..take_n）。
// useReal=false 时直接写占位文件，瞬时完成。
func (g *VideoGenerator) GenerateTakes(ctx context.Context, prompt string, numTakes int, outputDir string, useReal bool, sink ProgressSink) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, Wrap(KindUnknown, "create output dir failed", err)
	}

	log.Printf("[Generator] Generating %d takes for prompt: '%s' (real=%v)", numTakes, prompt, useReal)

	var paths []string
	for i := 1; i <= numTakes; i++ {
		videoPath := filepath.Join(outputDir, fmt.Sprintf("take_%d.mp4", i))

		if useReal && g.WorkerEndpoint != "" {
			if err := g.generateRealVideo(ctx, prompt, videoPath, i, sink); err != nil {
				// 真实生成失败不终止整个请求，降级到占位产物
				log.Printf("[Generator] Worker 生成失败，降级为占位视频: %v", err)
				if err := writeMockVideo(videoPath); err != nil {
					return nil, err
				}
			}
		} else {
			if err := writeMockVideo(videoPath); err != nil {
				return nil, err
			}
		}

		paths = append(paths, videoPath)
		log.Printf("[Generator] Generated take %d/%d: %s", i, numTakes, videoPath)
	}
	return paths, nil
}

// writeMockVideo 写入占位视频数据（非法 mp4，仅用于联调管线）
func writeMockVideo(videoPath string) error {
	data := bytes.Repeat([]byte("MOCK_VIDEO_DATA"), 1000)
	if err := os.WriteFile(videoPath, data, 0o644); err != nil {
		return Wrap(KindUnknown, "write mock video failed", err)
	}
	return nil
}

// generateRealVideo 提交 worker 任务并轮询到完成，下载产物到 videoPath
func (g *VideoGenerator) generateRealVideo(ctx context.Context, prompt, videoPath string, seed int, sink ProgressSink) error {
	jobID, err := g.dispatchWorkerRequest(ctx, prompt, seed)
	if err != nil {
		return err
	}
	log.Printf("[Generator] 任务已提交，Job ID: %s，开始轮询结果...", jobID)

	resourceURL, err := g.pollJobResult(ctx, jobID, sink)
	if err != nil {
		return err
	}
	return g.downloadResource(ctx, resourceURL, videoPath)
}

// dispatchWorkerRequest 发送 POST 请求，返回 job_id
func (g *VideoGenerator) dispatchWorkerRequest(ctx context.Context, prompt string, seed int) (string, error) {
	reqBody := map[string]interface{}{
		"prompt":     prompt,
		"duration":   g.VideoDuration,
		"resolution": g.Resolution,
		"fps":        g.FPS,
		"seed":       seed,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", Wrap(KindUnknown, "marshal request failed", err)
	}

	fullURL := g.WorkerEndpoint + "/v1/generate"
	log.Printf("POST %s", fullURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", Wrap(KindUnknown, "create request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", Wrap(KindExternal, "worker request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return "", E(KindExternal, fmt.Sprintf("worker status code: %d", resp.StatusCode))
	}

	var respData map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", Wrap(KindExternal, "decode response failed", err)
	}

	// 优先返回根节点的 id
	if id, ok := respData["id"].(string); ok && id != "" {
		return id, nil
	}
	if jobID, ok := respData["job_id"].(string); ok && jobID != "" {
		return jobID, nil
	}
	return "", E(KindExternal, "response missing 'id'")
}

// pollJobResult 轮询 GET /v1/jobs/{job_id} 直到完成，返回产物 URL。
// 最长等待为视频时长的 30 倍，超出按 Timeout 失败，不无限阻塞。
func (g *VideoGenerator) pollJobResult(ctx context.Context, jobID string, sink ProgressSink) (string, error) {
	jobURL := fmt.Sprintf("%s/v1/jobs/%s", g.WorkerEndpoint, jobID)

	maxWait := time.Duration(g.VideoDuration*30) * time.Second
	timeout := time.After(maxWait)
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return "", E(KindTimeout, fmt.Sprintf("video generation timed out after %s", maxWait))
		case <-ctx.Done():
			return "", Wrap(KindTimeout, "polling canceled", ctx.Err())
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, jobURL, nil)
			if err != nil {
				log.Printf("创建请求失败: %v", err)
				continue
			}

			resp, err := g.client.Do(req)
			if err != nil {
				log.Printf("轮询网络错误(重试中): %v", err)
				continue
			}

			var job struct {
				ID       string `json:"id"`
				Status   string `json:"status"`
				Progress int    `json:"progress"`
				Message  string `json:"message"`
				Error    string `json:"error"`
				Result   struct {
					ResourceUrl string `json:"resource_url"`
				} `json:"result"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
				resp.Body.Close()
				log.Printf("解析响应失败: %v", err)
				continue
			}
			resp.Body.Close()

			if sink != nil {
				sink(StatusInProgress, job.Progress, fmt.Sprintf("Generating video: %d%%", job.Progress))
			}

			switch job.Status {
			case "finished", "success", "completed", "succeeded":
				if job.Result.ResourceUrl == "" {
					return "", E(KindExternal, "job result missing resource_url")
				}
				return job.Result.ResourceUrl, nil
			case "failed", "error":
				return "", E(KindExternal, "worker reported failure: "+job.Error)
			}
			// 其他状态继续轮询
		}
	}
}

func (g *VideoGenerator) downloadResource(ctx context.Context, resourceURL, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return Wrap(KindUnknown, "create download request failed", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return Wrap(KindExternal, "download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return E(KindExternal, fmt.Sprintf("download status: %d", resp.StatusCode))
	}

	f, err := os.Create(localPath)
	if err != nil {
		return Wrap(KindUnknown, "create video file failed", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return Wrap(KindUnknown, "save video file failed", err)
	}
	return nil
}
