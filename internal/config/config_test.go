package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/effective-security/xlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "REQUEST_TIMEOUT", "SESSION_TTL", "APP_NAME", "LLM_PROVIDER", "LLM_MODEL",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MAX_RETRIES", "GOOGLE_API_KEY",
	"MCP_ENDPOINT", "MCP_AUTH_HEADER", "MCP_AUTH_TOKEN",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER", "LOG_LEVEL",
}

// clearEnv isola o teste das variáveis do ambiente da máquina
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, ":8000", cfg.Server.Addr())
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, DefaultOpenAIModel, cfg.LLM.Model)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Twilio.Enabled())
	assert.Empty(t, cfg.MCP.Endpoint)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "15s")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("MCP_ENDPOINT", "http://localhost:9000/mcp")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("TWILIO_FROM_NUMBER", "+15550001111")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, DefaultGeminiModel, cfg.LLM.Model)
	assert.Equal(t, "g-key", cfg.LLM.GoogleAPIKey)
	assert.Equal(t, "Authorization", cfg.MCP.AuthHeader)
	assert.True(t, cfg.Twilio.Enabled())
	assert.Equal(t, xlog.DEBUG, cfg.Log.LogLevel())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 8181
  request_timeout: 30s
llm:
  provider: openai
  model: gpt-4o
  openai_api_key: ${TEST_OPENAI_KEY}
log:
  level: warning
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "sk-from-env", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, xlog.WARNING, cfg.Log.LogLevel())

	// variáveis de ambiente têm precedência sobre o arquivo
	t.Setenv("PORT", "7000")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	tcases := []struct {
		name string
		key  string
		val  string
		err  string
	}{
		{"bad port", "PORT", "eighty", `invalid PORT "eighty"`},
		{"port out of range", "PORT", "70000", "invalid configuration"},
		{"bad timeout", "REQUEST_TIMEOUT", "soon", `invalid REQUEST_TIMEOUT "soon"`},
		{"bad session ttl", "SESSION_TTL", "forever", `invalid SESSION_TTL "forever"`},
		{"negative session ttl", "SESSION_TTL", "-1m", "invalid configuration"},
		{"bad provider", "LLM_PROVIDER", "anthropic", "invalid configuration"},
		{"bad from number", "TWILIO_FROM_NUMBER", "5550001111", "invalid configuration"},
		{"from number with dashes", "TWILIO_FROM_NUMBER", "+1-555-000-1111", "invalid configuration"},
		{"bad log level", "LOG_LEVEL", "verbose", "invalid configuration"},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.val)
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
