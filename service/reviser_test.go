package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WorldDirector-server/models"
)

func TestRevisePromptPhysicsViolation(t *testing.T) {
	r := NewPromptReviser(0, 0)

	violations := []models.Violation{
		{Type: models.ViolationPhysics, Severity: models.SeverityHigh},
	}
	revised := r.RevisePrompt("A robot walks down a hallway", violations, nil)

	// 原始主体保留，物理补强短语追加在后
	assert.Contains(t, revised, "hallway")
	assert.Contains(t, revised, "with clear solid boundaries")
	// 无质量关键词且足够短，统一补 cinematic shot
	assert.Contains(t, revised, "cinematic shot")
}

func TestRevisePromptNoViolations(t *testing.T) {
	r := NewPromptReviser(0, 0)

	revised := r.RevisePrompt("A simple scene", nil, nil)
	assert.Equal(t, "A simple scene, cinematic shot", revised)
}

func TestRevisePromptSkipsPresentPhrase(t *testing.T) {
	r := NewPromptReviser(0, 0)

	// 首选短语已存在时取下一条候选
	original := "A robot walks down a hallway with clear solid boundaries"
	violations := []models.Violation{{Type: models.ViolationPhysics}}
	revised := r.RevisePrompt(original, violations, nil)

	assert.Contains(t, revised, "with well-defined physical structures")
	assert.Equal(t, 1, strings.Count(strings.ToLower(revised), "with clear solid boundaries"))
}

func TestRevisePromptDeduplicatesAcrossViolations(t *testing.T) {
	r := NewPromptReviser(0, 0)

	// 同类违规出现多次，同一短语只追加一次
	violations := []models.Violation{
		{Type: models.ViolationBoundary},
		{Type: models.ViolationBoundary},
	}
	revised := r.RevisePrompt("A drone flies over a city", violations, nil)
	assert.Equal(t, 1, strings.Count(strings.ToLower(revised), "in a contained environment"))
}

func TestRevisePromptLowScores(t *testing.T) {
	r := NewPromptReviser(0.85, 0.80)

	scores := &models.ScoreSet{VisualQuality: 0.60, MotionSmoothness: 0.60}
	revised := r.RevisePrompt("A cat jumps", nil, scores)

	assert.Contains(t, revised, "in high quality")
	assert.Contains(t, revised, "with smooth motion")
}

func TestRevisePromptQualityTermSuppressesEnhancement(t *testing.T) {
	r := NewPromptReviser(0, 0)

	revised := r.RevisePrompt("A 4k timelapse of clouds", nil, nil)
	assert.NotContains(t, revised, "cinematic shot")
}

func TestRevisePromptCapitalizesFirstRune(t *testing.T) {
	r := NewPromptReviser(0, 0)

	revised := r.RevisePrompt("a cat sleeping", nil, nil)
	assert.True(t, strings.HasPrefix(revised, "A cat sleeping"))
}

func TestRevisePromptTrimsTrailingPunctuation(t *testing.T) {
	r := NewPromptReviser(0, 0)

	violations := []models.Violation{{Type: models.ViolationDepth}}
	revised := r.RevisePrompt("A boat drifts on a lake. ", violations, nil)

	assert.NotContains(t, revised, ". ,")
	assert.Contains(t, revised, "A boat drifts on a lake, with accurate depth perception")
}

func TestCreateRevisionExplanation(t *testing.T) {
	r := NewPromptReviser(0, 0)

	violations := []models.Violation{
		{Type: models.ViolationPhysics},
		{Type: models.ViolationBoundary},
		{Type: models.ViolationPhysics},
	}
	explanation := r.CreateRevisionExplanation("before", "after", violations)

	assert.Contains(t, explanation, "Revised prompt to address 3 issue(s):")
	assert.Contains(t, explanation, "- PhysicsViolation: 2 occurrence(s)")
	assert.Contains(t, explanation, "- BoundaryViolation: 1 occurrence(s)")
	assert.Contains(t, explanation, "Original: before")
	assert.Contains(t, explanation, "Revised: after")
	// 类型按首次出现顺序列出
	assert.Less(t, strings.Index(explanation, "PhysicsViolation"), strings.Index(explanation, "BoundaryViolation"))
}

func TestCreateRevisionExplanationNoViolations(t *testing.T) {
	r := NewPromptReviser(0, 0)

	explanation := r.CreateRevisionExplanation("a", "b", nil)
	assert.Equal(t, "No major issues detected. Prompt slightly enhanced for quality.", explanation)
}

func TestAnalyzePromptQuality(t *testing.T) {
	r := NewPromptReviser(0, 0)

	analysis := r.AnalyzePromptQuality("Something")
	assert.Equal(t, 1, analysis.Length)
	assert.True(t, analysis.HasSubject)
	assert.False(t, analysis.HasAction)
	assert.False(t, analysis.HasEnvironment)
	assert.False(t, analysis.HasStyle)
	assert.False(t, analysis.HasQualityTerm)
	require.Len(t, analysis.Suggestions, 4)
	assert.Contains(t, analysis.Suggestions[0], "action")
	assert.Contains(t, analysis.Suggestions[3], "quite short")
}

func TestAnalyzePromptQualityComplete(t *testing.T) {
	r := NewPromptReviser(0, 0)

	analysis := r.AnalyzePromptQuality("A cinematic 4k video of a robot walking through a detailed city street")
	assert.True(t, analysis.HasAction)
	assert.True(t, analysis.HasEnvironment)
	assert.True(t, analysis.HasStyle)
	assert.True(t, analysis.HasQualityTerm)
	assert.Empty(t, analysis.Suggestions)
}

func TestSuggestAlternatives(t *testing.T) {
	r := NewPromptReviser(0, 0)

	alts := r.SuggestAlternatives("A dog runs", 2)
	require.Len(t, alts, 2)
	assert.Equal(t, "A dog runs, wide angle shot", alts[0])

	// 非法 count 回退为 3
	assert.Len(t, r.SuggestAlternatives("A dog runs", 0), 3)
	assert.Len(t, r.SuggestAlternatives("A dog runs", 99), 3)
}
