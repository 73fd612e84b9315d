package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperdeck/internal/agent"
	"paperdeck/internal/ai"
	"paperdeck/internal/config"
	"paperdeck/internal/domain"
)

type nopBackend struct{}

func (nopBackend) Complete(context.Context, ai.ChatConfig, []ai.ChatMessage) (string, error) {
	return "", nil
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Paths.PromptTemplatePath = writeFile(t, dir, "prompt.txt", "Use this:\n{{MARKDOWN_TEMPLATE}}\nStyle:\n{{CSS_TEMPLATE}}")
	cfg.Paths.MarpTemplatePath = writeFile(t, dir, "marp.md", "---\nmarp: true\n---")
	cfg.Paths.CSSTemplatePath = writeFile(t, dir, "custom.css", "section { color: #333; }")
	cfg.Paths.AgentSettingsPath = filepath.Join(dir, "missing.yaml")
	return cfg
}

func TestBuildStagesResolvesPrompts(t *testing.T) {
	cfg := testConfig(t)

	stages, err := BuildStages(cfg, nopBackend{})
	require.NoError(t, err)
	require.Len(t, stages, 2)

	assert.Equal(t, config.StageInterpreter, stages[0].Name)
	interpreter, ok := stages[0].Agent.(*agent.Agent)
	require.True(t, ok)
	assert.Equal(t, "Use this:\n---\nmarp: true\n---\nStyle:\nsection { color: #333; }", interpreter.Config().SystemPrompt)
	assert.Equal(t, 180*time.Second, interpreter.Config().Timeout)

	formatter, ok := stages[1].Agent.(*agent.Agent)
	require.True(t, ok)
	assert.Equal(t, config.FormatterPrompt, formatter.Config().SystemPrompt)
	assert.Equal(t, 0.3, formatter.Config().Temperature)
}

func TestBuildStagesMissingTemplate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.CSSTemplatePath = filepath.Join(t.TempDir(), "gone.css")

	_, err := BuildStages(cfg, nopBackend{})
	assert.True(t, domain.IsKind(err, domain.KindTemplate))
}

func TestBuildStagesRejectsOutOfRangeSampling(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Temperature = 1.5

	_, err := BuildStages(cfg, nopBackend{})
	assert.True(t, domain.IsKind(err, domain.KindConfig))
}

func TestNewBackendUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "carrier-pigeon"

	_, _, err := NewBackend(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown llm provider")
}

func TestRetryPolicyFromConfig(t *testing.T) {
	p := RetryPolicy(config.LLMConfig{MaxAttempts: 3, InitialBackoffMS: 500, MaxBackoffMS: 4000})
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 4*time.Second, p.MaxBackoff)
}
