package model

// ChatRequest representa a requisição para o endpoint de chat
type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse representa a resposta do endpoint de chat.
// SessionID é serializado como null quando não há sessão.
type ChatResponse struct {
	Response  string  `json:"response"`
	SessionID *string `json:"session_id"`
}

// SimpleChatResponse representa a resposta do endpoint /chat/simple
type SimpleChatResponse struct {
	Response string `json:"response"`
}

// ToolDescriptor descreve uma ferramenta registrada no agente
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HealthResponse representa o payload de liveness do serviço
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	AgentReady bool   `json:"agent_ready"`
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
}

// ErrorResponse é o corpo JSON de qualquer resposta de erro
type ErrorResponse struct {
	Error string `json:"error"`
}
