package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

type fakeMessaging struct {
	handled  []models.WebhookPayload
	sent     []models.OutboundMessageRequest
	handleFn func() error
	sendErr  error
}

func (f *fakeMessaging) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if mode != "subscribe" || token != "secret" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (f *fakeMessaging) HandleWebhook(_ context.Context, payload models.WebhookPayload) error {
	f.handled = append(f.handled, payload)
	if f.handleFn != nil {
		return f.handleFn()
	}
	return nil
}

func (f *fakeMessaging) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	f.sent = append(f.sent, req)
	return f.sendErr
}

func newWebhookEngine(svc *fakeMessaging) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(svc, nil)
	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
	r.POST("/send-message", h.SendMessage)
	return r
}

func send(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookVerify(t *testing.T) {
	r := newWebhookEngine(&fakeMessaging{})

	w := send(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=1158201444", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1158201444", w.Body.String())

	w = send(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebhookReceive(t *testing.T) {
	svc := &fakeMessaging{handleFn: func() error { return errors.New("send failed") }}
	r := newWebhookEngine(svc)

	w := send(r, http.MethodPost, "/webhook", `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"from":"1","text":{"body":"/help"}}]}}]}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.handled, 1)
	assert.Equal(t, "/help", svc.handled[0].Messages()[0].CommandText())

	w = send(r, http.MethodPost, "/webhook", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessage(t *testing.T) {
	svc := &fakeMessaging{}
	r := newWebhookEngine(svc)

	w := send(r, http.MethodPost, "/send-message", `{"to":"233200000000","message":"Stock is low"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, svc.sent, 1)
	assert.Equal(t, "Stock is low", svc.sent[0].Message)

	w = send(r, http.MethodPost, "/send-message", `{"to":"233200000000"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.sendErr = errors.New("meta down")
	w = send(r, http.MethodPost, "/send-message", `{"to":"1","message":"x"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
