package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestAsset(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "world.splat")
	require.NoError(t, os.WriteFile(path, []byte("splat data"), 0o644))
	return path
}

func TestTestWorldMissingAsset(t *testing.T) {
	a := NewAgentModule(30)

	_, err := a.TestWorld(filepath.Join(t.TempDir(), "missing.splat"), nil, "")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestTestWorldDefaultScenarios(t *testing.T) {
	a := NewAgentModule(30)
	asset := writeTestAsset(t, t.TempDir())

	result, err := a.TestWorld(asset, nil, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultScenarios, result.TestScenarios)
	assert.Equal(t, asset, result.AssetPath)
	assert.Equal(t, 30.0, result.TestDuration)
}

func TestTestWorldResultShape(t *testing.T) {
	a := NewAgentModule(30)
	asset := writeTestAsset(t, t.TempDir())

	result, err := a.TestWorld(asset, []string{"path_traversal"}, "")
	require.NoError(t, err)

	assert.LessOrEqual(t, len(result.Violations), 3)
	assert.Equal(t, len(result.Violations) == 0, result.Success)

	for _, v := range result.Violations {
		assert.NotEmpty(t, v.Type)
		assert.NotEmpty(t, v.Description)
		assert.GreaterOrEqual(t, v.Timestamp, 1.0)
		assert.LessOrEqual(t, v.Timestamp, 30.0)
	}

	assert.GreaterOrEqual(t, result.Metrics.PathCompletion, 0.70)
	assert.LessOrEqual(t, result.Metrics.PathCompletion, 1.0)
	if len(result.Violations) == 0 {
		assert.Zero(t, result.Metrics.CollisionRate)
	}
}

func TestTestWorldDeterministic(t *testing.T) {
	a := NewAgentModule(30)
	asset := writeTestAsset(t, t.TempDir())

	// 同一资产、同一场景集、同一 salt 两次巡检结果一致
	first, err := a.TestWorld(asset, nil, "salt-1")
	require.NoError(t, err)
	second, err := a.TestWorld(asset, nil, "salt-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFallbackResult(t *testing.T) {
	a := NewAgentModule(30)

	result := a.fallbackResult("/tmp/world.splat", DefaultScenarios)
	assert.True(t, result.Success)
	assert.Empty(t, result.Violations)
	assert.Equal(t, 1.0, result.Metrics.PathCompletion)
	assert.Equal(t, 0.95, result.Metrics.PhysicsScore)
}
