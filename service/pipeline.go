package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"WorldDirector-server/models"
)

// Pipeline 串联 生成 → 评分 → 排名 → 重建 → agent 巡检 → 提示词修订 的编排器。
// 各组件在进程启动时装配一次，显式持有，不走包级单例。
type Pipeline struct {
	Generator     *VideoGenerator
	Scorer        *VideoScorer
	Agent         *AgentModule
	Reviser       *PromptReviser
	Cache         *GenerationCache
	Reconstructor *Reconstructor
	Progress      *ProgressStore

	GenerationsDir     string
	ReconstructionsDir string
	NumTakes           int
	MockSizeThreshold  int64 // 真实模式产物小于该字节数按 mock 上报

	// Upload 可选的产物上传钩子（本地路径, 对象名）→ 外链。为 nil 时只用本地路径。
	Upload func(localPath, objectName string) (string, error)
}

// PromptHash 提示词的稳定内容哈希（sha256 前 16 位十六进制），缓存/进度/目录分片统一用它做 key
func PromptHash(prompt string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(prompt)))
	return hex.EncodeToString(sum[:])[:16]
}

// Generate 执行一轮完整的生成与评分。返回的记录中 takes 已按综合分排名。
func (p *Pipeline) Generate(ctx context.Context, prompt string, numTakes int, useReal bool) (*models.Generation, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, E(KindValidation, "Prompt is required")
	}
	if numTakes <= 0 {
		numTakes = p.NumTakes
	}

	promptHash := PromptHash(prompt)
	log.Printf("[Pipeline] Generation request: '%s' (hash=%s, takes=%d, real=%v)", prompt, promptHash, numTakes, useReal)

	p.Progress.Set(promptHash, ProgressState{Status: StatusQueued, Progress: 0, Message: "Initializing generation..."})

	// 真实模式先查缓存；命中直接短路，省掉昂贵的生成调用
	if useReal {
		if rec := p.Cache.Lookup(promptHash); rec != nil {
			rec.Cached = true
			p.Progress.Set(promptHash, ProgressState{Status: StatusCompleted, Progress: 100, Message: "Loaded from cache"})
			return rec, nil
		}
	}

	rec, err := p.runGeneration(ctx, prompt, promptHash, numTakes, useReal)
	if err != nil {
		p.Progress.Set(promptHash, ProgressState{Status: StatusFailed, Progress: 0, Message: "Generation failed: " + err.Error()})
		return nil, err
	}

	p.Progress.Set(promptHash, ProgressState{Status: StatusCompleted, Progress: 100, Message: "Generation complete!"})
	return rec, nil
}

func (p *Pipeline) runGeneration(ctx context.Context, prompt, promptHash string, numTakes int, useReal bool) (*models.Generation, error) {
	outputDir := filepath.Join(p.GenerationsDir, promptHash)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, Wrap(KindUnknown, "create generation dir failed", err)
	}
	p.savePromptMetadata(outputDir, promptHash, prompt, numTakes, useReal)

	p.Progress.Set(promptHash, ProgressState{Status: StatusInProgress, Progress: 10, Message: "Starting video generation..."})

	// 真实生成通过 sink 持续回写进度；每次整结构体替换
	sink := func(status string, progress int, message string) {
		p.Progress.Set(promptHash, ProgressState{Status: status, Progress: progress, Message: message})
	}

	videoPaths, err := p.Generator.GenerateTakes(ctx, prompt, numTakes, outputDir, useReal, sink)
	if err != nil {
		return nil, err
	}

	if !useReal {
		// 模拟生成瞬时完成，直接跳到评分段
		p.Progress.Set(promptHash, ProgressState{Status: StatusInProgress, Progress: 90, Message: "Scoring videos..."})
	}

	takes := make([]models.Take, 0, len(videoPaths))
	for i, videoPath := range videoPaths {
		scores := p.Scorer.ScoreVideo(videoPath)
		takes = append(takes, models.Take{
			TakeID:    i + 1,
			VideoPath: videoPath,
			VideoURL:  localDataURL(videoPath),
			Scores:    scores,
		})
	}

	rankTakes(takes)

	mode := reconcileMode(useReal, videoPaths, p.MockSizeThreshold)

	if p.Upload != nil {
		for i := range takes {
			objectName := fmt.Sprintf("generations/%s/take_%d.mp4", promptHash, takes[i].TakeID)
			if u, err := p.Upload(takes[i].VideoPath, objectName); err != nil {
				log.Printf("[Pipeline] take_%d 上传失败，保留本地 URL: %v", takes[i].TakeID, err)
			} else {
				takes[i].VideoURL = u
			}
		}
	}

	rec := &models.Generation{
		PromptHash: promptHash,
		Prompt:     prompt,
		Takes:      takes,
		Mode:       mode,
		Cached:     false,
		Success:    true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	// 只有校正后仍为真实模式的结果才值得缓存
	if mode == models.ModeReal {
		if err := p.Cache.Store(promptHash, rec); err != nil {
			log.Printf("[Pipeline] 缓存写入失败（忽略）: %v", err)
		}
	}

	log.Printf("[Pipeline] Generation complete: %d takes created (mode: %s)", len(takes), mode)
	return rec, nil
}

// rankTakes 按综合分降序稳定排序并赋 1..N 的名次；同分时原始序号小的在前
func rankTakes(takes []models.Take) {
	sort.SliceStable(takes, func(i, j int) bool {
		return takes[i].Scores.Overall > takes[j].Scores.Overall
	})
	for i := range takes {
		takes[i].Rank = i + 1
	}
}

// reconcileMode 体积启发式：声称真实生成但首个产物过小，多半是 worker 静默降级，
// 对外按 MOCK 上报。只影响上报口径，结果本身照常返回。
func reconcileMode(useReal bool, videoPaths []string, threshold int64) string {
	if !useReal {
		return models.ModeMock
	}
	if len(videoPaths) > 0 {
		if info, err := os.Stat(videoPaths[0]); err == nil && info.Size() < threshold {
			return models.ModeMock
		}
	}
	return models.ModeReal
}

// Reconstruct 从指定视频重建 3D 世界资产
func (p *Pipeline) Reconstruct(promptHash, videoPath string) (string, error) {
	if promptHash == "" || videoPath == "" {
		return "", E(KindValidation, "prompt_hash and video_path are required")
	}
	outputDir := filepath.Join(p.ReconstructionsDir, promptHash)
	assetPath, err := p.Reconstructor.Reconstruct(videoPath, outputDir, "splat")
	if err != nil {
		return "", err
	}

	if p.Upload != nil {
		objectName := fmt.Sprintf("reconstructions/%s/%s", promptHash, filepath.Base(assetPath))
		if _, err := p.Upload(assetPath, objectName); err != nil {
			log.Printf("[Pipeline] 资产上传失败（忽略）: %v", err)
		}
	}
	return assetPath, nil
}

// RunAgentTest 对重建资产跑 agent 巡检；有违规时追加生成修订记录，无违规直接短路
func (p *Pipeline) RunAgentTest(assetPath, prompt string, scenarios []string, salt string) (*models.TestResult, *models.Revision, error) {
	if assetPath == "" {
		return nil, nil, E(KindValidation, "asset_path is required")
	}

	result, err := p.Agent.TestWorld(assetPath, scenarios, salt)
	if err != nil {
		return nil, nil, err
	}

	if len(result.Violations) == 0 {
		return result, nil, nil
	}

	revised := p.Reviser.RevisePrompt(prompt, result.Violations, nil)
	explanation := p.Reviser.CreateRevisionExplanation(prompt, revised, result.Violations)

	revision := &models.Revision{
		PromptHash:     PromptHash(prompt),
		OriginalPrompt: prompt,
		RevisedPrompt:  revised,
		Violations:     result.Violations,
		Explanation:    explanation,
		CreatedAt:      time.Now(),
	}
	return result, revision, nil
}

// savePromptMetadata 生成目录里落一份元数据文本，便于人工排查
func (p *Pipeline) savePromptMetadata(outputDir, promptHash, prompt string, numTakes int, useReal bool) {
	mode := models.ModeMock
	if useReal {
		mode = models.ModeReal
	}
	content := fmt.Sprintf("Prompt Hash: %s\nTimestamp: %s\nPrompt: %s\n\nMetadata:\n  num_takes: %d\n  mode: %s\n",
		promptHash, time.Now().Format(time.RFC3339), prompt, numTakes, mode)
	if err := os.WriteFile(filepath.Join(outputDir, "metadata.txt"), []byte(content), 0o644); err != nil {
		log.Printf("[Pipeline] 写入元数据失败（忽略）: %v", err)
	}
}

// localDataURL 把本地产物路径转成 /data 静态路由下的 URL
func localDataURL(localPath string) string {
	return "/" + filepath.ToSlash(filepath.Clean(localPath))
}

// CleanupOldData 清理超过 days 天未更新的生成/重建目录，返回删除数量
func (p *Pipeline) CleanupOldData(days int) int {
	cutoff := time.Now().AddDate(0, 0, -days)
	removed := 0
	for _, root := range []string{p.GenerationsDir, p.ReconstructionsDir} {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				dir := filepath.Join(root, entry.Name())
				if err := os.RemoveAll(dir); err != nil {
					log.Printf("[Cleanup] 删除目录失败 %s: %v", dir, err)
					continue
				}
				removed++
				log.Printf("[Cleanup] Removed old directory: %s", dir)
			}
		}
	}
	log.Printf("[Cleanup] Cleanup complete: removed %d directories", removed)
	return removed
}
