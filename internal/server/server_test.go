package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vitormoschetta/go-agent-gateway/internal/config"
	"github.com/vitormoschetta/go-agent-gateway/internal/handler"
	"github.com/vitormoschetta/go-agent-gateway/internal/mocks/mockagent"
	"github.com/vitormoschetta/go-agent-gateway/internal/model"
)

func newTestRouter(t *testing.T) (*httptest.Server, *mockagent.MockAgent) {
	t.Helper()
	ctrl := gomock.NewController(t)
	agent := mockagent.NewMockAgent(ctrl)
	h := handler.NewHandler(agent, handler.Info{Provider: "openai", Model: "gpt-4o-mini"})

	s := &Server{Config: config.Default()}
	s.SetupRouter(h.HandleRoot, h.HandleHealth, h.HandleChat, h.HandleChatSimple, h.HandleTools)

	ts := httptest.NewServer(s.Router)
	t.Cleanup(ts.Close)
	return ts, agent
}

func TestRouter_Routes(t *testing.T) {
	ts, agent := newTestRouter(t)
	agent.EXPECT().Chat(gomock.Any(), "s1", "2+2").Return("4", "s1", nil)
	agent.EXPECT().ChatOnce(gomock.Any(), "hello").Return("hi", nil)
	agent.EXPECT().Tools().Return([]model.ToolDescriptor{{Name: "calculator", Description: "math"}})

	tcases := []struct {
		method string
		path   string
		body   string
		status int
		expect string
	}{
		{http.MethodGet, "/", "", http.StatusOK, `"status":"healthy"`},
		{http.MethodGet, "/health", "", http.StatusOK, `"agent_ready":true`},
		{http.MethodPost, "/chat", `{"message":"2+2","session_id":"s1"}`, http.StatusOK, `{"response":"4","session_id":"s1"}`},
		{http.MethodPost, "/chat", `{"message":""}`, http.StatusBadRequest, `"error":"message is required"`},
		{http.MethodPost, "/chat/simple?message=hello", "", http.StatusOK, `{"response":"hi"}`},
		{http.MethodGet, "/tools", "", http.StatusOK, `[{"name":"calculator","description":"math"}]`},
		{http.MethodGet, "/chat", "", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/missing", "", http.StatusNotFound, ""},
	}
	for _, tc := range tcases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tc.expect)
		})
	}
}

func TestRouter_CORS(t *testing.T) {
	ts, _ := newTestRouter(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRouter_RequestTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	agent := mockagent.NewMockAgent(ctrl)
	agent.EXPECT().Chat(gomock.Any(), "slow", "hello").
		DoAndReturn(func(ctx context.Context, sessionID, _ string) (string, string, error) {
			<-ctx.Done()
			return "", sessionID, model.NewUpstreamError(ctx.Err())
		})
	h := handler.NewHandler(agent, handler.Info{})

	cfg := config.Default()
	cfg.Server.RequestTimeout = 50 * time.Millisecond
	s := &Server{Config: cfg}
	s.SetupRouter(h.HandleRoot, h.HandleHealth, h.HandleChat, h.HandleChatSimple, h.HandleTools)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hello","session_id":"slow"}`))
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.NotContains(t, rec.Body.String(), "agent error")
}

func TestAuthenticatedTransport(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Api-Token")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := &http.Client{Transport: &AuthenticatedTransport{Header: "X-Api-Token", Token: "secret"}}
	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "secret", got)
	assert.Empty(t, req.Header.Get("X-Api-Token"), "original request must not be modified")
}

func TestNewServer(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Model = config.DefaultOpenAIModel
	cfg.LLM.OpenAIAPIKey = "sk-test"
	cfg.LLM.OpenAIBaseURL = "http://127.0.0.1:1/v1"

	s, err := NewServer(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, s.Agent)
	assert.Len(t, s.Agent.Tools(), 3)
	assert.Empty(t, s.McpEndpoint)
}

func TestStart_Shutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 0

	s := &Server{Config: cfg}
	h := handler.NewHandler(nil, handler.Info{})
	s.SetupRouter(h.HandleRoot, h.HandleHealth, h.HandleChat, h.HandleChatSimple, h.HandleTools)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestStart_NoRouter(t *testing.T) {
	s := &Server{Config: config.Default()}
	assert.EqualError(t, s.Start(context.Background()), "router is not configured")
}
