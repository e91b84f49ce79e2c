package model

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Tipos de erro expostos pelo gateway. Erros concretos são marcados com
// errors.Mark e reconhecidos com errors.Is.
var (
	// ErrValidation indica entrada inválida do cliente.
	ErrValidation = errors.New("validation error")
	// ErrUpstream indica falha do runtime do agente ou do provedor LLM.
	ErrUpstream = errors.New("upstream error")
	// ErrAgentUnavailable indica que o agente não foi inicializado.
	ErrAgentUnavailable = errors.New("agent not initialized")
)

// NewValidationError cria um erro de validação com a mensagem informada.
func NewValidationError(msg string) error {
	return errors.Mark(errors.New(msg), ErrValidation)
}

// NewUpstreamError envolve err como falha do agente.
func NewUpstreamError(err error) error {
	return errors.Mark(errors.Wrap(err, "agent error"), ErrUpstream)
}

// StatusCode traduz um erro para o status HTTP correspondente.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAgentUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
