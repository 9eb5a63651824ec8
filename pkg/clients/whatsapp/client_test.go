package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stationdash/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.WhatsAppConfig{
		AccessToken:   "wa-token",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL,
		APIVersion:    "v21.0",
	}, nil)
}

func TestSendTextMessage(t *testing.T) {
	var payload map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v21.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	})

	resp, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "233200000000", Body: "hello"})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "wamid.1", resp.Messages[0].ID)
	assert.Equal(t, "whatsapp", payload["messaging_product"])
	assert.Equal(t, "233200000000", payload["to"])
	assert.Equal(t, "hello", payload["text"].(map[string]any)["body"])
}

func TestSendTextMessageAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid recipient","code":131030,"fbtrace_id":"abc"}}`))
	})

	_, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "x"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, 131030, apiErr.Code)
	assert.Equal(t, "Invalid recipient", apiErr.Message)
	assert.Equal(t, "abc", apiErr.TraceID)
}

func TestSendTextMessageRejectsEmpty(t *testing.T) {
	c := NewClient(config.WhatsAppConfig{BaseURL: "http://127.0.0.1:1", APIVersion: "v21.0"}, nil)

	_, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "  "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestTruncateBody(t *testing.T) {
	short := "GH₵ 12.00"
	assert.Equal(t, short, truncateBody(short))

	long := strings.Repeat("₵", maxBodyLength)
	got := truncateBody(long)
	assert.LessOrEqual(t, len(got), maxBodyLength)
	assert.True(t, strings.HasPrefix(long, got))
	assert.Equal(t, 0, len(got)%len("₵"))
}
