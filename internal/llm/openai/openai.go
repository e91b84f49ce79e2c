// Package openai adapta a API de Chat Completions da OpenAI à interface
// model.LLM do ADK, permitindo que o llmagent use modelos GPT com ferramentas.
package openai

import (
	"context"
	"encoding/json"
	"iter"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

var logger = xlog.NewPackageLogger("github.com/vitormoschetta/go-agent-gateway", "llm/openai")

// ErrEmptyResponse é retornado quando a API não devolve nenhuma escolha
var ErrEmptyResponse = errors.New("empty response from OpenAI")

// Model implementa model.LLM sobre o cliente oficial da OpenAI
type Model struct {
	name   string
	client openai.Client
}

var _ model.LLM = (*Model)(nil)

// New cria o modelo. opts são repassadas ao cliente (API key, base URL, retries).
func New(name string, opts ...option.RequestOption) *Model {
	return &Model{
		name:   name,
		client: openai.NewClient(opts...),
	}
}

// Name implementa model.LLM
func (m *Model) Name() string {
	return m.name
}

// GenerateContent implementa model.LLM. A resposta é sempre entregue em um
// único LLMResponse, mesmo quando stream é solicitado.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *Model) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	params, err := m.buildParams(req)
	if err != nil {
		return nil, err
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"model", params.Model,
		"messages", len(params.Messages),
		"tools", len(params.Tools))

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "chat completion failed")
	}
	if len(completion.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return toLLMResponse(completion)
}

func (m *Model) buildParams(req *model.LLMRequest) (openai.ChatCompletionNewParams, error) {
	name := req.Model
	if name == "" {
		name = m.name
	}
	params := openai.ChatCompletionNewParams{
		Model: name,
	}

	if cfg := req.Config; cfg != nil {
		if text := contentText(cfg.SystemInstruction); text != "" {
			params.Messages = append(params.Messages, openai.SystemMessage(text))
		}
		if cfg.Temperature != nil {
			params.Temperature = openai.Float(float64(*cfg.Temperature))
		}
		if cfg.MaxOutputTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(cfg.MaxOutputTokens))
		}
		tools, err := toTools(cfg.Tools)
		if err != nil {
			return params, err
		}
		params.Tools = tools
	}

	for _, c := range req.Contents {
		msgs, err := toMessages(c)
		if err != nil {
			return params, err
		}
		params.Messages = append(params.Messages, msgs...)
	}

	if len(params.Messages) == 0 {
		return params, errors.New("request has no messages")
	}
	return params, nil
}

// toMessages converte um genai.Content em uma ou mais mensagens OpenAI.
// Respostas de função viram mensagens "tool"; chamadas de função viram tool_calls.
func toMessages(c *genai.Content) ([]openai.ChatCompletionMessageParamUnion, error) {
	if c == nil {
		return nil, nil
	}

	var (
		texts     []string
		toolCalls []openai.ChatCompletionMessageToolCallUnionParam
		out       []openai.ChatCompletionMessageParamUnion
	)
	for _, p := range c.Parts {
		if p == nil {
			continue
		}
		switch {
		case p.FunctionCall != nil:
			args, err := json.Marshal(p.FunctionCall.Args)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to encode arguments of %s", p.FunctionCall.Name)
			}
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: p.FunctionCall.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      p.FunctionCall.Name,
						Arguments: string(args),
					},
				},
			})
		case p.FunctionResponse != nil:
			payload, err := json.Marshal(p.FunctionResponse.Response)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to encode response of %s", p.FunctionResponse.Name)
			}
			out = append(out, openai.ToolMessage(string(payload), p.FunctionResponse.ID))
		case p.Text != "" && !p.Thought:
			texts = append(texts, p.Text)
		}
	}

	text := strings.Join(texts, "")
	if c.Role == genai.RoleModel {
		if text == "" && len(toolCalls) == 0 {
			return out, nil
		}
		asst := openai.ChatCompletionAssistantMessageParam{
			ToolCalls: toolCalls,
		}
		if text != "" {
			asst.Content.OfString = openai.String(text)
		}
		return append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}), nil
	}

	if text != "" {
		out = append(out, openai.UserMessage(text))
	}
	return out, nil
}

func toTools(tools []*genai.Tool) ([]openai.ChatCompletionToolUnionParam, error) {
	var out []openai.ChatCompletionToolUnionParam
	for _, t := range tools {
		if t == nil {
			continue
		}
		for _, decl := range t.FunctionDeclarations {
			params, err := toParameters(decl)
			if err != nil {
				return nil, err
			}
			def := openai.FunctionDefinitionParam{
				Name:       decl.Name,
				Parameters: params,
			}
			if decl.Description != "" {
				def.Description = openai.String(decl.Description)
			}
			out = append(out, openai.ChatCompletionFunctionTool(def))
		}
	}
	return out, nil
}

// toParameters produz o JSON Schema dos parâmetros de uma declaração.
// genai.Schema serializa tipos em maiúsculas, que a OpenAI não aceita.
func toParameters(decl *genai.FunctionDeclaration) (openai.FunctionParameters, error) {
	var src any
	switch {
	case decl.ParametersJsonSchema != nil:
		src = decl.ParametersJsonSchema
	case decl.Parameters != nil:
		src = decl.Parameters
	default:
		return openai.FunctionParameters{"type": "object", "properties": map[string]any{}}, nil
	}

	raw, err := json.Marshal(src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode schema of %s", decl.Name)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, errors.Wrapf(err, "failed to decode schema of %s", decl.Name)
	}
	normalizeSchema(params)
	return params, nil
}

func normalizeSchema(v any) {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			if k == "type" {
				if s, ok := child.(string); ok {
					node[k] = strings.ToLower(s)
					continue
				}
			}
			normalizeSchema(child)
		}
	case []any:
		for _, child := range node {
			normalizeSchema(child)
		}
	}
}

func toLLMResponse(completion *openai.ChatCompletion) (*model.LLMResponse, error) {
	choice := completion.Choices[0]
	msg := choice.Message

	content := &genai.Content{Role: genai.RoleModel}
	if msg.Content != "" {
		content.Parts = append(content.Parts, genai.NewPartFromText(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name == "" {
			continue
		}
		args := map[string]any{}
		if strings.TrimSpace(tc.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, errors.Wrapf(err, "invalid arguments for tool %s", tc.Function.Name)
			}
		}
		content.Parts = append(content.Parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: args,
			},
		})
	}
	if msg.Refusal != "" && len(content.Parts) == 0 {
		content.Parts = append(content.Parts, genai.NewPartFromText(msg.Refusal))
	}

	return &model.LLMResponse{
		Content: content,
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(completion.Usage.PromptTokens),
			CandidatesTokenCount: int32(completion.Usage.CompletionTokens),
			TotalTokenCount:      int32(completion.Usage.TotalTokens),
		},
		FinishReason: finishReason(choice.FinishReason),
		TurnComplete: true,
	}, nil
}

func finishReason(reason string) genai.FinishReason {
	switch reason {
	case "length":
		return genai.FinishReasonMaxTokens
	case "content_filter":
		return genai.FinishReasonSafety
	case "stop", "tool_calls", "function_call":
		return genai.FinishReasonStop
	default:
		return genai.FinishReasonUnspecified
	}
}

func contentText(c *genai.Content) string {
	if c == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Parts {
		if p != nil && p.Text != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
