// Package llm seleciona o provedor LLM que alimenta o agente.
package llm

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/vitormoschetta/go-agent-gateway/internal/config"
	"github.com/vitormoschetta/go-agent-gateway/internal/llm/openai"
)

var logger = xlog.NewPackageLogger("github.com/vitormoschetta/go-agent-gateway", "llm")

// NewModel cria o model.LLM configurado
func NewModel(ctx context.Context, cfg config.LLMConfig) (model.LLM, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		opts := []option.RequestOption{
			option.WithMaxRetries(cfg.MaxRetries),
		}
		if cfg.OpenAIAPIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.OpenAIAPIKey))
		}
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
		}
		logger.KV(xlog.INFO, "provider", config.ProviderOpenAI, "model", cfg.Model)
		return openai.New(cfg.Model, opts...), nil

	case config.ProviderGemini:
		m, err := gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
			APIKey:  cfg.GoogleAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create gemini model")
		}
		logger.KV(xlog.INFO, "provider", config.ProviderGemini, "model", cfg.Model)
		return m, nil

	default:
		return nil, errors.Newf("unsupported LLM provider %q", cfg.Provider)
	}
}
