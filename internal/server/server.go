package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/mcptoolset"

	"github.com/vitormoschetta/go-agent-gateway/internal/config"
	"github.com/vitormoschetta/go-agent-gateway/internal/llm"
	"github.com/vitormoschetta/go-agent-gateway/internal/service"
	"github.com/vitormoschetta/go-agent-gateway/internal/tools"
)

var logger = xlog.NewPackageLogger("github.com/vitormoschetta/go-agent-gateway", "server")

// AuthenticatedTransport adiciona um header de autenticação às requisições HTTP
type AuthenticatedTransport struct {
	Base   http.RoundTripper
	Header string
	Token  string
}

// RoundTrip implementa http.RoundTripper
func (t *AuthenticatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clonar a requisição para não modificar a original
	reqCopy := req.Clone(req.Context())

	if t.Token != "" && t.Header != "" {
		reqCopy.Header.Set(t.Header, t.Token)
	}

	logger.KV(xlog.DEBUG, "mcp_request", reqCopy.Method, "url", reqCopy.URL.String())

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(reqCopy)
}

// Server representa o servidor HTTP com todas as dependências
type Server struct {
	Config      *config.Config
	Agent       *service.AgentService
	McpEndpoint string
	Router      chi.Router
}

// NewServer cria uma nova instância do servidor: modelo LLM, ferramentas,
// toolset MCP opcional e o serviço do agente.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	llmModel, err := llm.NewModel(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	var sender tools.Sender = tools.LogSender{}
	if cfg.Twilio.Enabled() {
		sender = tools.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
		logger.KV(xlog.INFO, "sms", "twilio", "from", cfg.Twilio.FromNumber)
	}
	registry := tools.NewRegistry(sender)
	agentTools, err := registry.Tools()
	if err != nil {
		return nil, err
	}

	var toolsets []tool.Toolset
	if cfg.MCP.Endpoint != "" {
		mcpToolSet, err := newMCPToolset(cfg.MCP)
		if err != nil {
			return nil, err
		}
		toolsets = append(toolsets, mcpToolSet)
	}

	agentService, err := service.NewAgentService(service.Config{
		AppName:     cfg.Server.AppName,
		Model:       llmModel,
		Tools:       agentTools,
		Toolsets:    toolsets,
		Descriptors: registry.Descriptors(),
		SessionTTL:  cfg.Server.SessionTTL,
	})
	if err != nil {
		return nil, err
	}

	logger.KV(xlog.INFO, "status", "agent_initialized",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"tools", len(agentTools),
		"mcp", cfg.MCP.Endpoint != "")

	return &Server{
		Config:      cfg,
		Agent:       agentService,
		McpEndpoint: cfg.MCP.Endpoint,
	}, nil
}

func newMCPToolset(cfg config.MCPConfig) (tool.Toolset, error) {
	httpClient := &http.Client{
		Transport: &AuthenticatedTransport{
			Base:   http.DefaultTransport,
			Header: cfg.AuthHeader,
			Token:  cfg.AuthToken,
		},
		Timeout: 30 * time.Second,
	}

	transport := &mcp.StreamableClientTransport{
		Endpoint:   cfg.Endpoint,
		HTTPClient: httpClient,
	}

	logger.KV(xlog.INFO, "status", "mcp_connecting", "endpoint", cfg.Endpoint)

	mcpToolSet, err := mcptoolset.New(mcptoolset.Config{
		Transport: transport,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MCP tool set")
	}
	return mcpToolSet, nil
}

// SetupRouter configura as rotas e middlewares do Chi
func (s *Server) SetupRouter(
	handleRoot http.HandlerFunc,
	handleHealth http.HandlerFunc,
	handleChat http.HandlerFunc,
	handleChatSimple http.HandlerFunc,
	handleTools http.HandlerFunc,
) {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(s.requestTimeout()))

	// Rotas
	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)
	r.Get("/tools", handleTools)
	r.Post("/chat", handleChat)
	r.Post("/chat/simple", handleChatSimple)

	s.Router = r
}

func (s *Server) requestTimeout() time.Duration {
	if s.Config == nil || s.Config.Server.RequestTimeout <= 0 {
		return config.DefaultRequestTimeout
	}
	return s.Config.Server.RequestTimeout
}

func (s *Server) addr() string {
	if s.Config == nil {
		return config.Default().Server.Addr()
	}
	return s.Config.Server.Addr()
}

// Start inicia o servidor HTTP e bloqueia até ctx ser cancelado,
// encerrando com graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	if s.Router == nil {
		return errors.New("router is not configured")
	}

	timeout := s.requestTimeout()
	httpServer := &http.Server{
		Addr:              s.addr(),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if s.Agent != nil {
		go s.Agent.PruneSessions(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.KV(xlog.INFO, "status", "listening", "addr", httpServer.Addr,
			"endpoints", "GET /, GET /health, POST /chat, POST /chat/simple, GET /tools")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Aguardar sinal de interrupção
	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	logger.KV(xlog.INFO, "status", "shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server shutdown error")
	}
	logger.KV(xlog.INFO, "status", "stopped")
	return nil
}
