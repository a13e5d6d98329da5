package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path   string
	APIKey string
	Body   map[string]any
}

func newKapsoServer(t *testing.T, status int) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = json.Unmarshal(body, &decoded)
		captured = append(captured, capturedRequest{Path: r.URL.Path, APIKey: r.Header.Get("X-API-Key"), Body: decoded})

		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"error":{"message":"bad"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestClient_SendText(t *testing.T) {
	srv, captured := newKapsoServer(t, http.StatusOK)
	c := NewClient(Config{APIKey: "key", BaseURL: srv.URL + "/"})

	require.NoError(t, c.SendText(context.Background(), "pn-1", "15551234567", "hello"))

	require.Len(t, *captured, 1)
	got := (*captured)[0]
	assert.Equal(t, "/"+DefaultAPIVersion+"/pn-1/messages", got.Path)
	assert.Equal(t, "key", got.APIKey)
	assert.Equal(t, "whatsapp", got.Body["messaging_product"])
	assert.Equal(t, "15551234567", got.Body["to"])
	assert.Equal(t, "text", got.Body["type"])
	assert.Equal(t, map[string]any{"body": "hello", "preview_url": false}, got.Body["text"])
}

func TestClient_MarkRead(t *testing.T) {
	srv, captured := newKapsoServer(t, http.StatusOK)
	c := NewClient(Config{APIKey: "key", BaseURL: srv.URL})

	require.NoError(t, c.MarkRead(context.Background(), "pn-1", "wamid.in", true))
	require.NoError(t, c.MarkRead(context.Background(), "pn-1", "wamid.in", false))

	require.Len(t, *captured, 2)
	assert.Equal(t, "read", (*captured)[0].Body["status"])
	assert.Equal(t, "wamid.in", (*captured)[0].Body["message_id"])
	assert.Equal(t, map[string]any{"type": "text"}, (*captured)[0].Body["typing_indicator"])
	assert.NotContains(t, (*captured)[1].Body, "typing_indicator")
}

func TestClient_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		srv, _ := newKapsoServer(t, http.StatusBadRequest)
		c := NewClient(Config{APIKey: "key", BaseURL: srv.URL})

		err := c.SendText(context.Background(), "pn-1", "1", "x")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Contains(t, apiErr.Body, "bad")
	})

	t.Run("not configured", func(t *testing.T) {
		c := NewClient(Config{})
		assert.False(t, c.Configured())
		assert.ErrorIs(t, c.SendText(context.Background(), "pn-1", "1", "x"), ErrNotConfigured)
	})

	t.Run("missing phone number id", func(t *testing.T) {
		c := NewClient(Config{APIKey: "key"})
		assert.Error(t, c.MarkRead(context.Background(), "", "wamid", true))
	})
}
