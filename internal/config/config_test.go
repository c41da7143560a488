package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.HTTPPort)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 1, cfg.Workflow.MaxIterations)
	assert.Equal(t, 3, cfg.Workflow.MaxAttempts)
	assert.Equal(t, 20*time.Second, cfg.Workflow.QueryTimeout)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, "advanced", cfg.Search.Depth)
	assert.True(t, cfg.Links.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEGALFLOW_WORKFLOW_MAX_ITERATIONS", "2")
	t.Setenv("LEGALFLOW_WORKFLOW_QUERY_TIMEOUT", "3s")
	t.Setenv("TAVILY_API_KEY", "tvly-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workflow.MaxIterations)
	assert.Equal(t, 3*time.Second, cfg.Workflow.QueryTimeout)
	assert.Equal(t, "tvly-test", cfg.Search.APIKey)
}

func TestLoadDotEnvAndMockMode(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("LEGALFLOW_MODE=MOCK\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LEGALFLOW_MODE") })

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, "mock", cfg.Search.Provider)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEGALFLOW_LLM_PROVIDER", "telepathy")

	_, err := Load("")
	require.Error(t, err)
}
