package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 违规类型枚举（agent 探索检出）
const (
	ViolationPhysics           = "PhysicsViolation"
	ViolationBoundary          = "BoundaryViolation"
	ViolationObjectPersistence = "ObjectPersistence"
	ViolationDepth             = "DepthInconsistency"
	ViolationLowVisualQuality  = "LowVisualQuality"
	ViolationMotionIssues      = "MotionIssues"
)

const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Violation 一条物理/一致性缺陷，Timestamp 落在 [0, simulation_duration] 内
type Violation struct {
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	Location    Location `json:"location"`
	Timestamp   float64  `json:"timestamp"`
}

type ViolationList []Violation

func (l ViolationList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *ViolationList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}
	return json.Unmarshal(bytes, l)
}

// AgentMetrics agent 巡检的聚合指标，均在 [0,1]
type AgentMetrics struct {
	CollisionRate  float64 `json:"collision_rate"`
	PathCompletion float64 `json:"path_completion"`
	PhysicsScore   float64 `json:"physics_score"`
	StabilityScore float64 `json:"stability_score"`
}

// TestResult 一次 agent 世界测试的产出，Success 由违规列表是否为空推导
type TestResult struct {
	AssetPath     string        `json:"asset_path"`
	TestScenarios []string      `json:"test_scenarios"`
	Violations    ViolationList `json:"violations"`
	Metrics       AgentMetrics  `json:"metrics"`
	TestDuration  float64       `json:"test_duration"`
	Success       bool          `json:"success"`
}

// Revision 提示词修订记录
type Revision struct {
	ID             uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	PromptHash     string        `gorm:"type:varchar(64);index" json:"prompt_hash"`
	OriginalPrompt string        `json:"original_prompt"`
	RevisedPrompt  string        `json:"revised_prompt"`
	Violations     ViolationList `gorm:"type:json" json:"violations"`
	Explanation    string        `json:"explanation"`
	CreatedAt      time.Time     `json:"createdAt"`
}

func CreateRevision(db *gorm.DB, r *Revision) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return db.Create(r).Error
}

func ListRevisionsByHash(db *gorm.DB, promptHash string) ([]Revision, error) {
	var res []Revision
	if err := db.Where("prompt_hash = ?", promptHash).Order("created_at ASC").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

// 强制指定表名为 "revision"
func (Revision) TableName() string {
	return "revision"
}
