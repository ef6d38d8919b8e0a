package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WorldDirector-server/models"
)

func makeCachedGeneration(t *testing.T, baseDir, promptHash string, numTakes int) *models.Generation {
	t.Helper()
	dir := filepath.Join(baseDir, promptHash)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	takes := make([]models.Take, 0, numTakes)
	for i := 1; i <= numTakes; i++ {
		path := filepath.Join(dir, "take_"+string(rune('0'+i))+".mp4")
		require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
		takes = append(takes, models.Take{TakeID: i, VideoPath: path, Rank: i})
	}
	return &models.Generation{
		PromptHash: promptHash,
		Prompt:     "a test prompt",
		Takes:      takes,
		Mode:       models.ModeReal,
		Success:    true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func TestCacheStoreLookupRoundtrip(t *testing.T) {
	baseDir := t.TempDir()
	cache := NewGenerationCache(baseDir)

	rec := makeCachedGeneration(t, baseDir, "abc123", 2)
	require.NoError(t, cache.Store("abc123", rec))

	got := cache.Lookup("abc123")
	require.NotNil(t, got)
	assert.Equal(t, rec.Prompt, got.Prompt)
	assert.Len(t, got.Takes, 2)
	assert.Equal(t, models.ModeReal, got.Mode)

	// 落盘产物为 record.json，无残留临时文件
	_, err := os.Stat(filepath.Join(baseDir, "abc123", "record.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(baseDir, "abc123", "record.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestCacheLookupMissWithoutRecord(t *testing.T) {
	cache := NewGenerationCache(t.TempDir())
	assert.Nil(t, cache.Lookup("deadbeef"))
}

func TestCacheLookupMissOnDeletedTake(t *testing.T) {
	baseDir := t.TempDir()
	cache := NewGenerationCache(baseDir)

	rec := makeCachedGeneration(t, baseDir, "abc123", 2)
	require.NoError(t, cache.Store("abc123", rec))

	// 任意一个 take 文件缺失，整条缓存失效
	require.NoError(t, os.Remove(rec.Takes[1].VideoPath))
	assert.Nil(t, cache.Lookup("abc123"))
}

func TestCacheLookupMissOnCorruptRecord(t *testing.T) {
	baseDir := t.TempDir()
	cache := NewGenerationCache(baseDir)

	dir := filepath.Join(baseDir, "abc123")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "record.json"), []byte("{not json"), 0o644))

	assert.Nil(t, cache.Lookup("abc123"))
}

func TestCacheLookupMissOnEmptyTakes(t *testing.T) {
	baseDir := t.TempDir()
	cache := NewGenerationCache(baseDir)

	rec := &models.Generation{PromptHash: "abc123", Prompt: "p", Takes: models.TakeList{}}
	require.NoError(t, cache.Store("abc123", rec))

	assert.Nil(t, cache.Lookup("abc123"))
}
