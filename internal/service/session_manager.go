package service

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
	"google.golang.org/adk/session"
)

// ChatSession representa uma sessão de conversação HTTP.
// O histórico fica no session.Service do ADK; aqui guardamos apenas o
// identificador e o lock que serializa os turnos da sessão.
type ChatSession struct {
	ID string
	Mu sync.Mutex

	ready    bool
	lastUsed time.Time // protegido por SessionManager.mu
}

// SessionManager gerencia sessões de conversação HTTP
type SessionManager struct {
	appName  string
	userID   string
	service  session.Service
	sessions map[string]*ChatSession
	mu       sync.RWMutex
	now      func() time.Time
}

// NewSessionManager cria um SessionManager sobre o session.Service do ADK
func NewSessionManager(appName, userID string, svc session.Service) *SessionManager {
	return &SessionManager{
		appName:  appName,
		userID:   userID,
		service:  svc,
		sessions: make(map[string]*ChatSession),
		now:      time.Now,
	}
}

// GetOrCreate obtém uma sessão existente ou cria uma nova.
// Um sessionID vazio gera um novo identificador.
func (sm *SessionManager) GetOrCreate(sessionID string) *ChatSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sessionID == "" {
		sessionID = generateSessionID()
	}

	if chatSession, exists := sm.sessions[sessionID]; exists {
		chatSession.lastUsed = sm.now()
		return chatSession
	}

	chatSession := &ChatSession{
		ID:       sessionID,
		lastUsed: sm.now(),
	}
	sm.sessions[sessionID] = chatSession
	return chatSession
}

// Ensure garante que a sessão existe no session.Service do ADK.
// Deve ser chamado com chatSession.Mu adquirido.
func (sm *SessionManager) Ensure(ctx context.Context, chatSession *ChatSession) error {
	if chatSession.ready {
		return nil
	}

	_, err := sm.service.Get(ctx, &session.GetRequest{
		AppName:   sm.appName,
		UserID:    sm.userID,
		SessionID: chatSession.ID,
	})
	if err != nil {
		_, err = sm.service.Create(ctx, &session.CreateRequest{
			AppName:   sm.appName,
			UserID:    sm.userID,
			SessionID: chatSession.ID,
		})
		if err != nil {
			return errors.Wrapf(err, "failed to create session %s", chatSession.ID)
		}
	}
	chatSession.ready = true
	return nil
}

// Delete remove a sessão local e a do session.Service do ADK
func (sm *SessionManager) Delete(ctx context.Context, sessionID string) error {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	err := sm.service.Delete(ctx, &session.DeleteRequest{
		AppName:   sm.appName,
		UserID:    sm.userID,
		SessionID: sessionID,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete session %s", sessionID)
	}
	return nil
}

// Prune remove as sessões sem uso há mais de maxIdle, localmente e no
// session.Service do ADK. Sessões com turno em andamento são preservadas.
// Retorna o número de sessões removidas.
func (sm *SessionManager) Prune(ctx context.Context, maxIdle time.Duration) int {
	cutoff := sm.now().Add(-maxIdle)

	var expired []string
	sm.mu.Lock()
	for id, chatSession := range sm.sessions {
		if !chatSession.lastUsed.Before(cutoff) {
			continue
		}
		if !chatSession.Mu.TryLock() {
			continue
		}
		// quem ainda tiver o ponteiro recria a sessão em Ensure
		chatSession.ready = false
		chatSession.Mu.Unlock()

		delete(sm.sessions, id)
		expired = append(expired, id)
	}
	sm.mu.Unlock()

	for _, id := range expired {
		err := sm.service.Delete(ctx, &session.DeleteRequest{
			AppName:   sm.appName,
			UserID:    sm.userID,
			SessionID: id,
		})
		if err != nil {
			logger.ContextKV(ctx, xlog.WARNING, "session", id, "reason", "prune_failed", "err", err.Error())
		}
	}
	return len(expired)
}

// Len retorna o número de sessões conhecidas
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func generateSessionID() string {
	return uuid.NewString()
}
