package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 生成模式（对外上报用，经过体积启发式校正后写入）
const (
	ModeReal = "REAL"
	ModeMock = "MOCK"
)

// 评分权重固定不变，overall 永远由六项指标加权重算，不允许外部直接写入
var ScoreWeights = map[string]float64{
	"identity_persistence": 0.25,
	"path_realism":         0.20,
	"physics_plausibility": 0.20,
	"visual_quality":       0.15,
	"motion_smoothness":    0.10,
	"temporal_coherence":   0.10,
}

type ScoreSet struct {
	IdentityPersistence float64 `json:"identity_persistence"`
	PathRealism         float64 `json:"path_realism"`
	PhysicsPlausibility float64 `json:"physics_plausibility"`
	VisualQuality       float64 `json:"visual_quality"`
	MotionSmoothness    float64 `json:"motion_smoothness"`
	TemporalCoherence   float64 `json:"temporal_coherence"`
	Overall             float64 `json:"overall"`
}

// ComputeOverall 按固定权重重算综合分
func (s *ScoreSet) ComputeOverall() float64 {
	s.Overall = s.IdentityPersistence*ScoreWeights["identity_persistence"] +
		s.PathRealism*ScoreWeights["path_realism"] +
		s.PhysicsPlausibility*ScoreWeights["physics_plausibility"] +
		s.VisualQuality*ScoreWeights["visual_quality"] +
		s.MotionSmoothness*ScoreWeights["motion_smoothness"] +
		s.TemporalCoherence*ScoreWeights["temporal_coherence"]
	return s.Overall
}

// Take 单条候选视频
type Take struct {
	TakeID    int      `json:"take_id"` // 1 起始
	VideoURL  string   `json:"video_url"`
	VideoPath string   `json:"video_path"`
	Scores    ScoreSet `json:"scores"`
	Rank      int      `json:"rank"`
}

type TakeList []Take

func (l TakeList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *TakeList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}
	return json.Unmarshal(bytes, l)
}

// Generation 一次生成的完整记录，主键是提示词哈希
type Generation struct {
	PromptHash string    `gorm:"primaryKey;type:varchar(64)" json:"prompt_hash"`
	Prompt     string    `json:"prompt"`
	Takes      TakeList  `gorm:"type:json" json:"takes"`
	Mode       string    `json:"mode"`
	Cached     bool      `json:"cached"`
	Success    bool      `json:"success"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UpsertGeneration 按 prompt_hash 覆盖写入（同一哈希的写入不会产生撕裂行）
func UpsertGeneration(db *gorm.DB, g *Generation) error {
	g.UpdatedAt = time.Now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = g.UpdatedAt
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prompt_hash"}},
		UpdateAll: true,
	}).Create(g).Error
}

func GetGenerationByHash(db *gorm.DB, promptHash string) (*Generation, error) {
	var g Generation
	if err := db.First(&g, "prompt_hash = ?", promptHash).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// 强制指定表名为 "generation"
func (Generation) TableName() string {
	return "generation"
}
