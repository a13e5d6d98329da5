package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/wabot/internal/profile"
	"github.com/hrygo/wabot/plugin/ai"
	"github.com/hrygo/wabot/plugin/whatsapp"
	teststore "github.com/hrygo/wabot/store/test"
)

// scriptedLLM fails for the models listed in failing and answers reply otherwise.
type scriptedLLM struct {
	mu      sync.Mutex
	reply   string
	failing map[string]bool
	calls   []string
}

func (l *scriptedLLM) Chat(_ context.Context, model string, _ []ai.Message) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, model)
	if l.failing[model] {
		return "", assert.AnError
	}
	return l.reply, nil
}

func (l *scriptedLLM) Provider() string { return ai.ProviderOpenRouter }

func (l *scriptedLLM) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func newTestServer(t *testing.T, llm ai.LLMService, transport whatsapp.Transport) *Server {
	t.Helper()
	ctx := context.Background()
	st := teststore.NewTestingStore(ctx, t)
	p := &profile.Profile{
		Mode:               "dev",
		Secret:             "admin-secret",
		VerifyToken:        "123",
		PhoneNumberID:      "pn-default",
		AIProcessor:        ai.ProviderOpenRouter,
		OpenRouterModels:   "a/first,b/second",
		WhitelistedNumbers: "15550001111",
	}
	s, err := NewServer(ctx, p, st, WithLLMService(llm), WithTransport(transport))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.runner.Shutdown(context.Background())
		_ = s.closeCache()
	})
	return s
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServer_RequiresAIKey(t *testing.T) {
	ctx := context.Background()
	st := teststore.NewTestingStore(ctx, t)
	_, err := NewServer(ctx, &profile.Profile{Mode: "dev", AIProcessor: ai.ProviderGemini}, st, WithTransport(whatsapp.NewMockTransport()))
	assert.Error(t, err)
}

func TestServer_PublicEndpoints(t *testing.T) {
	s := newTestServer(t, &scriptedLLM{}, whatsapp.NewMockTransport())

	rec := serve(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=123&hub.challenge=ok", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	serve(s, http.MethodPost, "/webhook", `{"entry":[]}`)
	rec = serve(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `wabot_webhook_requests_total{result="accepted"} 1`)

	assert.Equal(t, http.StatusUnauthorized, serve(s, http.MethodGet, "/api/v1/whitelist", "").Code)
}

func TestServer_SeedsRegistryAndWhitelist(t *testing.T) {
	s := newTestServer(t, &scriptedLLM{}, whatsapp.NewMockTransport())
	ctx := context.Background()

	available, err := s.Registry().ListAvailable(ctx, ai.ProviderOpenRouter)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/first", "b/second"}, available)

	ok, err := s.Store.IsWhitelisted(ctx, "15550001111")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestServer_WebhookToReply(t *testing.T) {
	llm := &scriptedLLM{
		reply:   "```json\n{\"module\":\"Base\",\"submodule\":\"Main\",\"intent\":\"Greet\",\"reply\":\"Hello there!\",\"actions\":[]}\n```",
		failing: map[string]bool{"a/first": true},
	}
	transport := whatsapp.NewMockTransport()
	s := newTestServer(t, llm, transport)

	payload := `{"data":[{"message":{"from":"15550001111","id":"wamid.1","type":"text","text":{"body":"hi"}}},` +
		`{"message":{"from":"19990000000","id":"wamid.2","type":"text","text":{"body":"hi"}}}]}`
	rec := serve(s, http.MethodPost, "/webhook", payload)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool { return len(transport.Sent()) == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, s.runner.Shutdown(context.Background()))

	sent := transport.Sent()
	require.Len(t, sent, 1, "non-whitelisted sender gets no reply")
	assert.Equal(t, whatsapp.SentMessage{
		PhoneNumberID: "pn-default",
		To:            "15550001111",
		Body:          "Module: Base\nIntent: Greet\nModel: b/second\n\nHello there!",
	}, sent[0])
	assert.Equal(t, []string{"a/first", "b/second"}, llm.Calls())

	ctx := context.Background()
	available, err := s.Registry().ListAvailable(ctx, ai.ProviderOpenRouter)
	require.NoError(t, err)
	assert.Equal(t, []string{"b/second"}, available, "failed model is suspended")

	chat, err := s.Store.GetChatSession(ctx, "15550001111")
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Contains(t, chat.History, "Hello there!")
}
