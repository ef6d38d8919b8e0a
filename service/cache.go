package service

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"WorldDirector-server/models"
)

const cacheRecordName = "record.json"

// GenerationCache 按 prompt_hash 落盘的生成结果缓存。
// 只有真实生成（非模拟）才读写；模拟生成本来就便宜，每次重跑。
type GenerationCache struct {
	baseDir string // generations 根目录
}

func NewGenerationCache(baseDir string) *GenerationCache {
	return &GenerationCache{baseDir: baseDir}
}

// Lookup 读取缓存记录并校验每个 take 的本地文件仍然存在。
// 任意一个文件缺失都按未命中处理（触发重新生成），不做原地修补。
func (c *GenerationCache) Lookup(promptHash string) *models.Generation {
	recordPath := filepath.Join(c.baseDir, promptHash, cacheRecordName)
	b, err := os.ReadFile(recordPath)
	if err != nil {
		return nil
	}

	var rec models.Generation
	if err := json.Unmarshal(b, &rec); err != nil {
		log.Printf("[Cache] 缓存记录损坏，按未命中处理: %s (%v)", recordPath, err)
		return nil
	}

	if len(rec.Takes) == 0 {
		return nil
	}
	for _, take := range rec.Takes {
		if _, err := os.Stat(take.VideoPath); err != nil {
			log.Printf("[Cache] take_%d 文件缺失，缓存失效: %s", take.TakeID, take.VideoPath)
			return nil
		}
	}

	log.Printf("[Cache] Hit for prompt hash %s (%d takes)", promptHash, len(rec.Takes))
	return &rec
}

// Store 无条件覆盖写入，先写临时文件再 rename，避免并发写同一 hash 时出现撕裂记录
func (c *GenerationCache) Store(promptHash string, rec *models.Generation) error {
	dir := filepath.Join(c.baseDir, promptHash)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir failed: %w", err)
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache record failed: %w", err)
	}

	tmpPath := filepath.Join(dir, cacheRecordName+".tmp")
	if err := os.WriteFile(tmpPath, b, 0o644); err != nil {
		return fmt.Errorf("write cache temp file failed: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, cacheRecordName)); err != nil {
		return fmt.Errorf("rename cache record failed: %w", err)
	}

	log.Printf("[Cache] Stored record for prompt hash %s", promptHash)
	return nil
}
