package service

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	adkmodel "google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"

	"github.com/vitormoschetta/go-agent-gateway/internal/model"
)

var logger = xlog.NewPackageLogger("github.com/vitormoschetta/go-agent-gateway", "service")

// Valores padrão do agente
const (
	DefaultAgentName = "helper_agent"
	DefaultUserID    = "default-user"
	// EmptyResponseText é devolvido quando o agente não produz texto
	EmptyResponseText = "The agent processed the message but returned no response."
	// DefaultSessionTTL é o tempo sem uso após o qual uma sessão é descartada
	DefaultSessionTTL = 30 * time.Minute
)

// Config contém as dependências para construir o AgentService
type Config struct {
	AppName     string
	Model       adkmodel.LLM
	Tools       []tool.Tool
	Toolsets    []tool.Toolset
	Descriptors []model.ToolDescriptor
	SessionTTL  time.Duration
}

// AgentService executa o agente ADK para as requisições HTTP
type AgentService struct {
	appName     string
	agent       agent.Agent
	runner      *runner.Runner
	sessions    *SessionManager
	descriptors []model.ToolDescriptor
	sessionTTL  time.Duration
}

// NewAgentService cria o llmagent, o runner e o gerenciador de sessões
func NewAgentService(cfg Config) (*AgentService, error) {
	if cfg.Model == nil {
		return nil, errors.New("model is required")
	}

	a, err := llmagent.New(llmagent.Config{
		Name:        DefaultAgentName,
		Model:       cfg.Model,
		Description: "Helpful assistant with calculator, clock and SMS tools.",
		Instruction: instruction(cfg.Descriptors),
		Tools:       cfg.Tools,
		Toolsets:    cfg.Toolsets,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create agent")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	// Criar session service (in-memory for HTTP server)
	sessionService := session.InMemoryService()

	agentRunner, err := runner.New(runner.Config{
		AppName:        cfg.AppName,
		Agent:          a,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create runner")
	}

	return &AgentService{
		appName:     cfg.AppName,
		agent:       a,
		runner:      agentRunner,
		sessions:    NewSessionManager(cfg.AppName, DefaultUserID, sessionService),
		descriptors: cfg.Descriptors,
		sessionTTL:  ttl,
	}, nil
}

// Chat envia a mensagem ao agente na sessão informada e retorna o texto
// produzido e o identificador da sessão usada.
func (s *AgentService) Chat(ctx context.Context, sessionID, message string) (string, string, error) {
	if strings.TrimSpace(message) == "" {
		return "", sessionID, model.NewValidationError("message is required")
	}

	chatSess := s.sessions.GetOrCreate(sessionID)

	chatSess.Mu.Lock()
	defer chatSess.Mu.Unlock()

	if err := s.sessions.Ensure(ctx, chatSess); err != nil {
		return "", chatSess.ID, model.NewUpstreamError(err)
	}

	logger.ContextKV(ctx, xlog.DEBUG, "session", chatSess.ID, "message_len", len(message))

	reply, err := s.run(ctx, chatSess.ID, message)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "session", chatSess.ID, "err", err.Error())
		return "", chatSess.ID, model.NewUpstreamError(err)
	}

	logger.ContextKV(ctx, xlog.DEBUG, "session", chatSess.ID, "response_len", len(reply))
	return reply, chatSess.ID, nil
}

// ChatOnce executa um turno sem continuidade: a sessão é descartada ao final
func (s *AgentService) ChatOnce(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", model.NewValidationError("message is required")
	}

	reply, sessionID, err := s.Chat(ctx, "", message)
	if derr := s.sessions.Delete(context.WithoutCancel(ctx), sessionID); derr != nil {
		logger.ContextKV(ctx, xlog.WARNING, "session", sessionID, "reason", "cleanup_failed", "err", derr.Error())
	}
	return reply, err
}

// Tools retorna os descritores das ferramentas registradas
func (s *AgentService) Tools() []model.ToolDescriptor {
	out := make([]model.ToolDescriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out
}

// Sessions retorna o número de sessões ativas
func (s *AgentService) Sessions() int {
	return s.sessions.Len()
}

// PruneSessions descarta periodicamente as sessões ociosas até ctx ser cancelado
func (s *AgentService) PruneSessions(ctx context.Context) {
	interval := s.sessionTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Prune(ctx, s.sessionTTL); n > 0 {
				logger.ContextKV(ctx, xlog.DEBUG, "status", "sessions_pruned", "count", n, "active", s.sessions.Len())
			}
		}
	}
}

func (s *AgentService) run(ctx context.Context, sessionID, message string) (string, error) {
	userContent := genai.NewContentFromText(message, genai.RoleUser)

	var responseText strings.Builder
	for event, err := range s.runner.Run(ctx, DefaultUserID, sessionID, userContent, agent.RunConfig{}) {
		if err != nil {
			return "", err
		}
		if event == nil || event.Content == nil || event.Partial {
			continue
		}
		for _, part := range event.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				responseText.WriteString(part.Text)
			}
		}
	}

	if responseText.Len() == 0 {
		return EmptyResponseText, nil
	}
	return responseText.String(), nil
}

func instruction(tools []model.ToolDescriptor) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful AI assistant with access to:\n")
	for _, t := range tools {
		sb.WriteString("- ")
		sb.WriteString(t.Name)
		sb.WriteString(": ")
		sb.WriteString(t.Description)
		sb.WriteString("\n")
	}
	sb.WriteString("\nBe friendly, concise, and use tools when appropriate.")
	return sb.String()
}
