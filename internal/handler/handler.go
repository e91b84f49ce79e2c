package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/vitormoschetta/go-agent-gateway/internal/model"
)

//go:generate mockgen -source=handler.go -destination=../mocks/mockagent/agent_mock.gen.go -package mockagent

var logger = xlog.NewPackageLogger("github.com/vitormoschetta/go-agent-gateway", "handler")

// Version é a versão reportada pelos endpoints de health
const Version = "1.0.0"

// Agent é o runtime de agente usado pelos handlers
type Agent interface {
	// Chat executa um turno na sessão informada e retorna a resposta e a sessão usada
	Chat(ctx context.Context, sessionID, message string) (string, string, error)
	// ChatOnce executa um turno sem continuidade de sessão
	ChatOnce(ctx context.Context, message string) (string, error)
	// Tools retorna os descritores das ferramentas registradas
	Tools() []model.ToolDescriptor
}

// Info descreve o agente para os endpoints de health
type Info struct {
	Provider string
	Model    string
}

// Handler contém as dependências necessárias para os handlers HTTP
type Handler struct {
	agent    Agent
	info     Info
	validate *validator.Validate
}

// NewHandler cria uma nova instância do Handler. Um agent nil faz os
// endpoints de chat responderem 503.
func NewHandler(a Agent, info Info) *Handler {
	return &Handler{
		agent:    a,
		info:     info,
		validate: validator.New(),
	}
}

// HandleRoot retorna o health check básico
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.health())
}

// HandleHealth retorna o status detalhado do serviço
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.health())
}

// HandleTools retorna as ferramentas disponíveis no agente
func (h *Handler) HandleTools(w http.ResponseWriter, r *http.Request) {
	list := []model.ToolDescriptor{}
	if h.agent != nil {
		list = append(list, h.agent.Tools()...)
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleChat processa mensagens enviadas ao agente
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, model.NewValidationError("invalid JSON format"))
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, r, model.NewValidationError("message is required"))
		return
	}
	if h.agent == nil {
		h.writeError(w, r, model.ErrAgentUnavailable)
		return
	}

	reply, sessionID, err := h.agent.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ChatResponse{
		Response:  reply,
		SessionID: &sessionID,
	})
}

// HandleChatSimple processa POST /chat/simple?message=...
func (h *Handler) HandleChatSimple(w http.ResponseWriter, r *http.Request) {
	message := strings.TrimSpace(r.URL.Query().Get("message"))
	if message == "" {
		h.writeError(w, r, model.NewValidationError("message query parameter is required"))
		return
	}
	if h.agent == nil {
		h.writeError(w, r, model.ErrAgentUnavailable)
		return
	}

	reply, err := h.agent.ChatOnce(r.Context(), message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SimpleChatResponse{Response: reply})
}

func (h *Handler) health() model.HealthResponse {
	return model.HealthResponse{
		Status:     "healthy",
		Version:    Version,
		AgentReady: h.agent != nil,
		Provider:   h.info.Provider,
		Model:      h.info.Model,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := model.StatusCode(err)
	level := xlog.WARNING
	if status >= http.StatusInternalServerError {
		level = xlog.ERROR
	}
	logger.ContextKV(r.Context(), level,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"status", status,
		"err", err.Error())

	// middleware.Timeout responde 504 quando o prazo da requisição expira
	if errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		return
	}

	msg := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, model.ErrUpstream) {
		msg = "internal server error"
	}
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.KV(xlog.ERROR, "reason", "encode_response", "err", err.Error())
	}
}
