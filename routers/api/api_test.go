package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WorldDirector-server/models"
	"WorldDirector-server/service"
)

func setupTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataRoot := t.TempDir()
	generationsDir := filepath.Join(dataRoot, "generations")
	reconstructionsDir := filepath.Join(dataRoot, "reconstructions")
	require.NoError(t, os.MkdirAll(generationsDir, 0o755))
	require.NoError(t, os.MkdirAll(reconstructionsDir, 0o755))

	Init(&service.Pipeline{
		Generator:          service.NewVideoGenerator("", 8, "1280x720", 24),
		Scorer:             service.NewVideoScorer(),
		Agent:              service.NewAgentModule(30),
		Reviser:            service.NewPromptReviser(0.85, 0.80),
		Cache:              service.NewGenerationCache(generationsDir),
		Reconstructor:      service.NewReconstructor("", 300),
		Progress:           service.NewProgressStore(),
		GenerationsDir:     generationsDir,
		ReconstructionsDir: reconstructionsDir,
		NumTakes:           3,
		MockSizeThreshold:  100000,
	})

	r := gin.New()
	api := r.Group("/v1/api")
	{
		api.POST("/generate", Generate)
		api.GET("/generations/:prompt_hash", GetGeneration)
		api.GET("/progress/:prompt_hash", GetProgress)
		api.POST("/analyze_prompt", AnalyzePrompt)
		api.POST("/alternatives", SuggestAlternatives)
	}
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateEndpoint(t *testing.T) {
	r := setupTestAPI(t)

	w := postJSON(t, r, "/v1/api/generate", gin.H{"prompt": "A robot walks down a hallway", "num_takes": 2})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success    bool          `json:"success"`
		PromptHash string        `json:"prompt_hash"`
		Takes      []models.Take `json:"takes"`
		Mode       string        `json:"mode"`
		Cached     bool          `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Len(t, resp.PromptHash, 16)
	assert.Len(t, resp.Takes, 2)
	assert.Equal(t, models.ModeMock, resp.Mode)
	assert.False(t, resp.Cached)
}

func TestGenerateEndpointEmptyPrompt(t *testing.T) {
	r := setupTestAPI(t)

	w := postJSON(t, r, "/v1/api/generate", gin.H{"prompt": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetGenerationNotFound(t *testing.T) {
	r := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/api/generations/ffffffffffffffff", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProgressEndpoint(t *testing.T) {
	r := setupTestAPI(t)

	// 先跑一次生成，进度应停在终态
	w := postJSON(t, r, "/v1/api/generate", gin.H{"prompt": "A cat jumps over a fence"})
	require.Equal(t, http.StatusOK, w.Code)

	promptHash := service.PromptHash("A cat jumps over a fence")
	req := httptest.NewRequest(http.MethodGet, "/v1/api/progress/"+promptHash, nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code)

	var st service.ProgressState
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &st))
	assert.Equal(t, service.StatusCompleted, st.Status)
	assert.Equal(t, 100, st.Progress)
}

func TestProgressEndpointUnknownHash(t *testing.T) {
	r := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/api/progress/ffffffffffffffff", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["status"])
}

func TestAnalyzePromptEndpoint(t *testing.T) {
	r := setupTestAPI(t)

	w := postJSON(t, r, "/v1/api/analyze_prompt", gin.H{"prompt": "Something"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success  bool                   `json:"success"`
		Analysis service.PromptAnalysis `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Analysis.Length)
	assert.Len(t, resp.Analysis.Suggestions, 4)
}

func TestSuggestAlternativesEndpoint(t *testing.T) {
	r := setupTestAPI(t)

	w := postJSON(t, r, "/v1/api/alternatives", gin.H{"prompt": "A dog runs", "count": 2})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success      bool     `json:"success"`
		Alternatives []string `json:"alternatives"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Alternatives, 2)
	assert.Equal(t, "A dog runs, wide angle shot", resp.Alternatives[0])
}
