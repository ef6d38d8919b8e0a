package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"WorldDirector-server/config"
	"WorldDirector-server/models"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Processor 消费队列里的管线任务
type Processor struct {
	DB       *gorm.DB
	Pipeline *Pipeline
}

func NewProcessor(db *gorm.DB, pipeline *Pipeline) *Processor {
	return &Processor{DB: db, Pipeline: pipeline}
}

// StartProcessor 启动任务消费者
func (p *Processor) StartProcessor(concurrency int) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.Redis.Addr,
			Password: config.AppConfig.Redis.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePipelineGenerate, p.HandleGenerateTask)
	mux.HandleFunc(TypePipelineCleanup, p.HandleCleanupTask)

	log.Printf("Starting Task Processor with concurrency %d...", concurrency)
	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("could not run server: %v", err)
		}
	}()
}

// HandleGenerateTask 后台执行一轮完整的生成管线并落库
func (p *Processor) HandleGenerateTask(ctx context.Context, t *asynq.Task) error {
	var payload GeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Processing Generate Task: prompt='%s' (real=%v)", payload.Prompt, payload.UseReal)

	rec, err := p.Pipeline.Generate(ctx, payload.Prompt, payload.NumTakes, payload.UseReal)
	if err != nil {
		// 校验类错误重试无意义
		if KindOf(err) == KindValidation {
			return fmt.Errorf("invalid generate payload: %v: %w", err, asynq.SkipRetry)
		}
		log.Printf("后台生成失败: %v", err)
		return err // 返回 err 触发重试
	}

	if p.DB != nil {
		if err := models.UpsertGeneration(p.DB, rec); err != nil {
			log.Printf("生成记录落库失败: %v", err)
		}
	}

	log.Printf("Generate Task completed: hash=%s mode=%s takes=%d", rec.PromptHash, rec.Mode, len(rec.Takes))
	return nil
}

// HandleCleanupTask 清理过期数据目录
func (p *Processor) HandleCleanupTask(ctx context.Context, t *asynq.Task) error {
	var payload CleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Days <= 0 {
		payload.Days = config.AppConfig.Pipeline.CleanupDays
	}
	p.Pipeline.CleanupOldData(payload.Days)
	return nil
}
