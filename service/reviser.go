package service

import (
	"fmt"
	"log"
	"strings"
	"unicode"

	"WorldDirector-server/models"
)

// 每类违规对应一组有序候选补强短语，取第一条提示词里还没有的
var revisionRules = map[string][]string{
	models.ViolationPhysics: {
		"with clear solid boundaries",
		"with well-defined physical structures",
		"ensuring proper collision geometry",
	},
	models.ViolationBoundary: {
		"in a contained environment",
		"with visible boundaries",
		"within a defined space",
	},
	models.ViolationObjectPersistence: {
		"with consistent object appearance",
		"maintaining visual continuity",
		"with stable object identity",
	},
	models.ViolationDepth: {
		"with accurate depth perception",
		"ensuring proper 3D geometry",
		"with consistent spatial relationships",
	},
	models.ViolationLowVisualQuality: {
		"in high quality",
		"with sharp details",
		"cinematic lighting",
	},
	models.ViolationMotionIssues: {
		"with smooth motion",
		"realistic movement",
		"natural animation",
	},
}

// 通用增强的质量关键词，已包含其一则不再追加 cinematic shot
var qualityTerms = []string{"high quality", "cinematic", "4k", "detailed"}

// PromptReviser 根据违规与低分指标修订提示词
type PromptReviser struct {
	MinVisualQuality    float64 // visual_quality 低于该值触发画质补强
	MinMotionSmoothness float64 // motion_smoothness 低于该值触发运动补强
}

func NewPromptReviser(minVisualQuality, minMotionSmoothness float64) *PromptReviser {
	if minVisualQuality <= 0 {
		minVisualQuality = 0.85
	}
	if minMotionSmoothness <= 0 {
		minMotionSmoothness = 0.80
	}
	return &PromptReviser{
		MinVisualQuality:    minVisualQuality,
		MinMotionSmoothness: minMotionSmoothness,
	}
}

// RevisePrompt 按违规顺序挑选补强短语并追加到提示词，scores 可为 nil
func (r *PromptReviser) RevisePrompt(original string, violations []models.Violation, scores *models.ScoreSet) string {
	log.Printf("[Reviser] Revising prompt: '%s' (%d violations)", original, len(violations))

	working := strings.TrimSpace(original)

	var improvements []string
	seen := make(map[string]bool)
	add := func(phrase string) {
		key := strings.ToLower(phrase)
		if !seen[key] {
			seen[key] = true
			improvements = append(improvements, phrase)
		}
	}

	for _, v := range violations {
		for _, candidate := range revisionRules[v.Type] {
			if !containsFold(working, candidate) {
				add(candidate)
				break
			}
		}
	}

	if scores != nil {
		if scores.VisualQuality < r.MinVisualQuality {
			for _, p := range revisionRules[models.ViolationLowVisualQuality] {
				add(p)
			}
		}
		if scores.MotionSmoothness < r.MinMotionSmoothness {
			for _, p := range revisionRules[models.ViolationMotionIssues] {
				add(p)
			}
		}
	}

	if len(improvements) > 0 {
		working = applyImprovements(working, improvements)
	}
	working = applyGeneralEnhancements(working)

	log.Printf("[Reviser] Revised prompt: '%s'", working)
	return working
}

// applyImprovements 去掉尾部标点后逐条追加，已出现的短语跳过（大小写不敏感）
func applyImprovements(prompt string, improvements []string) string {
	prompt = strings.TrimRight(prompt, " \t\n")
	prompt = strings.TrimRight(prompt, ".,;")

	for _, imp := range improvements {
		if !containsFold(prompt, imp) {
			prompt = prompt + ", " + imp
		}
	}
	return prompt
}

// applyGeneralEnhancements 无质量关键词且较短的提示词统一补 cinematic shot，并保证首字母大写
func applyGeneralEnhancements(prompt string) string {
	hasQuality := false
	for _, term := range qualityTerms {
		if containsFold(prompt, term) {
			hasQuality = true
			break
		}
	}
	if !hasQuality && len(strings.Fields(prompt)) < 30 {
		prompt = prompt + ", cinematic shot"
	}

	runes := []rune(prompt)
	if len(runes) > 0 && !unicode.IsUpper(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		prompt = string(runes)
	}
	return prompt
}

// CreateRevisionExplanation 生成修订说明：违规计数、按类型聚合、原文与修订文
func (r *PromptReviser) CreateRevisionExplanation(original, revised string, violations []models.Violation) string {
	if len(violations) == 0 {
		return "No major issues detected. Prompt slightly enhanced for quality."
	}

	// 按首次出现顺序统计各类型数量
	var order []string
	counts := make(map[string]int)
	for _, v := range violations {
		vtype := v.Type
		if vtype == "" {
			vtype = "Unknown"
		}
		if counts[vtype] == 0 {
			order = append(order, vtype)
		}
		counts[vtype]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Revised prompt to address %d issue(s):\n", len(violations))
	for _, vtype := range order {
		fmt.Fprintf(&b, "- %s: %d occurrence(s)\n", vtype, counts[vtype])
	}
	fmt.Fprintf(&b, "\nOriginal: %s\n", original)
	fmt.Fprintf(&b, "Revised: %s", revised)
	return b.String()
}

// PromptAnalysis 提示词完整度分析结果
type PromptAnalysis struct {
	Length         int      `json:"length"`
	HasSubject     bool     `json:"has_subject"`
	HasAction      bool     `json:"has_action"`
	HasEnvironment bool     `json:"has_environment"`
	HasStyle       bool     `json:"has_style"`
	HasQualityTerm bool     `json:"has_quality_terms"`
	Suggestions    []string `json:"suggestions"`
}

var actionVerbs = []string{
	"walk", "run", "jump", "fly", "swim", "drive", "move", "spin",
	"rotate", "explor", "travel", "float", "dance", "fight",
}

var environmentTerms = []string{
	"hallway", "room", "street", "forest", "beach", "city", "space",
	"indoor", "outdoor", "building", "landscape", "scene", "environment",
}

var styleTerms = []string{
	"cinematic", "artistic", "realistic", "cartoon", "anime", "photorealistic",
	"stylized", "abstract", "dramatic", "beautiful", "stunning",
}

var analysisQualityTerms = []string{"high quality", "detailed", "cinematic", "4k", "8k"}

// AnalyzePromptQuality 检查提示词是否包含主体/动作/环境/风格/质量词，并给出建议
func (r *PromptReviser) AnalyzePromptQuality(prompt string) PromptAnalysis {
	words := strings.Fields(prompt)

	analysis := PromptAnalysis{
		Length:         len(words),
		HasSubject:     len(words) > 0,
		HasAction:      containsAnyFold(prompt, actionVerbs),
		HasEnvironment: containsAnyFold(prompt, environmentTerms),
		HasStyle:       containsAnyFold(prompt, styleTerms),
		HasQualityTerm: containsAnyFold(prompt, analysisQualityTerms),
		Suggestions:    []string{},
	}

	if !analysis.HasSubject {
		analysis.Suggestions = append(analysis.Suggestions, "Consider adding a clear subject (person, object, character)")
	}
	if !analysis.HasAction {
		analysis.Suggestions = append(analysis.Suggestions, "Consider adding an action or movement")
	}
	if !analysis.HasEnvironment {
		analysis.Suggestions = append(analysis.Suggestions, "Consider describing the environment or setting")
	}
	if !analysis.HasStyle {
		analysis.Suggestions = append(analysis.Suggestions, "Consider adding style descriptors (cinematic, artistic, etc.)")
	}
	if analysis.Length < 5 {
		analysis.Suggestions = append(analysis.Suggestions, "Prompt is quite short; consider adding more details")
	}
	return analysis
}

// SuggestAlternatives 生成固定的提示词变体（机位/光照/环境/运动）
func (r *PromptReviser) SuggestAlternatives(original string, count int) []string {
	alternatives := []string{
		original + ", wide angle shot",
		original + ", well-lit scene with soft lighting",
		original + ", detailed environment with clear spatial layout",
		original + ", smooth and realistic motion",
	}
	if count <= 0 || count > len(alternatives) {
		count = 3
	}
	return alternatives[:count]
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func containsAnyFold(s string, terms []string) bool {
	lower := strings.ToLower(s)
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
