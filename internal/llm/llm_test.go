package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitormoschetta/go-agent-gateway/internal/config"
)

func TestNewModel_OpenAI(t *testing.T) {
	m, err := NewModel(context.Background(), config.LLMConfig{
		Provider:      config.ProviderOpenAI,
		Model:         "gpt-4o-mini",
		OpenAIAPIKey:  "sk-test",
		OpenAIBaseURL: "http://localhost:1/v1",
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", m.Name())
}

func TestNewModel_Gemini(t *testing.T) {
	m, err := NewModel(context.Background(), config.LLMConfig{
		Provider:     config.ProviderGemini,
		Model:        config.DefaultGeminiModel,
		GoogleAPIKey: "g-test",
	})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultGeminiModel, m.Name())
}

func TestNewModel_Unsupported(t *testing.T) {
	_, err := NewModel(context.Background(), config.LLMConfig{Provider: "anthropic"})
	assert.EqualError(t, err, `unsupported LLM provider "anthropic"`)
}
