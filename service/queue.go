package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"WorldDirector-server/config"

	"github.com/hibiken/asynq"
)

const (
	TypePipelineGenerate = "pipeline:generate"
	TypePipelineCleanup  = "pipeline:cleanup"
)

// GeneratePayload 异步生成任务的载荷
type GeneratePayload struct {
	Prompt   string `json:"prompt"`
	NumTakes int    `json:"num_takes"`
	UseReal  bool   `json:"use_real"`
}

type CleanupPayload struct {
	Days int `json:"days"`
}

var QueueClient *asynq.Client

// InitQueue 初始化
func InitQueue() {
	QueueClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.Redis.Addr,
		Password: config.AppConfig.Redis.Password,
	})
}

// EnqueueGenerate 异步执行一轮生成管线，调用方之后按 prompt_hash 轮询进度
func EnqueueGenerate(payload GeneratePayload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypePipelineGenerate, b,
		asynq.MaxRetry(3),             // 失败重试 3 次
		asynq.Timeout(20*time.Minute), // 真实生成较慢，设置较长超时
		asynq.Retention(24*time.Hour), // 任务结果在 Redis 保留时间
	)

	info, err := QueueClient.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	log.Printf("[Queue] Generate Task Enqueued: ID=%s, prompt_hash=%s", info.ID, PromptHash(payload.Prompt))
	return nil
}

// EnqueueCleanup 清理过期生成/重建目录
func EnqueueCleanup(days int) error {
	b, err := json.Marshal(CleanupPayload{Days: days})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypePipelineCleanup, b, asynq.MaxRetry(1))
	info, err := QueueClient.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	log.Printf("[Queue] Cleanup Task Enqueued: ID=%s, days=%d", info.ID, days)
	return nil
}
