package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 3, cfg.Engine.SecurityTarget)
	assert.Equal(t, 4, cfg.Engine.SabotageTarget)
	assert.Equal(t, 2, cfg.Engine.PromotionThreshold)
	assert.Equal(t, 11, cfg.Engine.SecurityCards)
	assert.Equal(t, 6, cfg.Engine.SabotageCards)
	assert.Equal(t, 2, cfg.Engine.OpponentRetries)
}

func TestLoadFullConfig(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-test")

	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
logger:
  level: debug
llms:
  opponent:
    type: openai
    model: test-model
    api_key: ${TEST_API_KEY}
    host: http://localhost:11434/v1
engine:
  sabotage_target: 6
  opponent_llm: opponent
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)

	llm := cfg.LLMs["opponent"]
	require.NotNil(t, llm)
	assert.Equal(t, "sk-test", llm.APIKey)
	assert.Equal(t, "http://localhost:11434/v1", llm.Host)
	assert.Equal(t, 4096, llm.MaxTokens)

	assert.Equal(t, 6, cfg.Engine.SabotageTarget)
	assert.Equal(t, 3, cfg.Engine.PromotionThreshold)
	assert.Equal(t, "opponent", cfg.Engine.OpponentLLM)
}

func TestLoadRejectsUnknownOpponentLLM(t *testing.T) {
	path := writeConfig(t, `
engine:
  opponent_llm: ghost
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opponent_llm")
}

func TestLoadRejectsBadPort(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 70000
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ARENA_SET", "value")
	os.Unsetenv("ARENA_UNSET")

	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"${ARENA_SET}", "value"},
		{"$ARENA_SET", "value"},
		{"${ARENA_UNSET:-fallback}", "fallback"},
		{"${ARENA_SET:-fallback}", "value"},
		{"${ARENA_UNSET}", ""},
		{"prefix-${ARENA_SET}-suffix", "prefix-value-suffix"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, expandEnvVars(tc.in), tc.in)
	}
}

func TestEngineConfigValidation(t *testing.T) {
	c := EngineConfig{}
	c.SetDefaults()
	require.NoError(t, c.Validate())

	short := EngineConfig{SecurityTarget: 5, SecurityCards: 3, SabotageTarget: 4, SabotageCards: 6}
	assert.Error(t, short.Validate())

	biased := EngineConfig{ImpostorOversampleProb: 1.5}
	biased.SetDefaults()
	assert.Error(t, biased.Validate())
}

func TestLLMProviderConfigValidation(t *testing.T) {
	c := &LLMProviderConfig{}
	c.SetDefaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, "openai", c.Type)
	assert.Equal(t, "https://api.openai.com/v1", c.Host)

	bad := &LLMProviderConfig{Type: "openai", Model: "m", Host: "h"}
	temp := 3.0
	bad.Temperature = &temp
	assert.Error(t, bad.Validate())
}
