package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/stationdash/internal/config"
	"github.com/mamadbah2/stationdash/pkg/clients/stationapi"
)

const (
	loginPath   = "/api/auth/login"
	refreshPath = "/api/auth/refresh"
)

var (
	// ErrLoginFailed is returned when the API rejects the credentials.
	ErrLoginFailed = errors.New("login failed")
	// ErrNoRefreshToken is returned by Refresh when no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// Session holds the current token pair and implements
// stationapi.CredentialProvider.
type Session struct {
	httpClient *resty.Client
	store      TokenStore
	logger     *zap.Logger

	mu       sync.RWMutex
	tokens   Tokens
	handlers []func()
}

var _ stationapi.CredentialProvider = (*Session)(nil)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}

// NewSession loads any stored tokens and prepares the auth endpoints client.
func NewSession(cfg config.APIConfig, store TokenStore, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = &MemoryTokenStore{}
	}

	tokens, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(timeout)

	return &Session{
		httpClient: restyClient,
		store:      store,
		logger:     logger,
		tokens:     tokens,
	}, nil
}

// Login exchanges email and password for a token pair and stores it.
func (s *Session) Login(ctx context.Context, email, password string) error {
	result := new(tokenResponse)
	apiErr := new(errorResponse)

	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username":   email,
			"password":   password,
			"grant_type": "password",
		}).
		SetResult(result).
		SetError(apiErr).
		Post(loginPath)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status=%d, detail=%s", ErrLoginFailed, resp.StatusCode(), detailString(apiErr.Detail))
	}
	if result.AccessToken == "" {
		return fmt.Errorf("%w: response carried no access token", ErrLoginFailed)
	}

	if err := s.setTokens(Tokens{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}); err != nil {
		return err
	}
	s.logger.Info("logged in", zap.String("email", email))
	return nil
}

// Token returns the access token or stationapi.ErrNotAuthenticated.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens.AccessToken == "" {
		return "", stationapi.ErrNotAuthenticated
	}
	return s.tokens.AccessToken, nil
}

// Tokens returns a copy of the current pair.
func (s *Session) Tokens() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// Refresh trades the refresh token for a new pair.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	refreshToken := s.tokens.RefreshToken
	s.mu.RUnlock()
	if refreshToken == "" {
		return ErrNoRefreshToken
	}

	result := new(tokenResponse)
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"refresh_token": refreshToken}).
		SetResult(result).
		Post(refreshPath)
	if err != nil {
		return fmt.Errorf("refresh request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("refresh token: status=%d", resp.StatusCode())
	}
	if result.AccessToken == "" {
		return errors.New("refresh token: response carried no access token")
	}

	tokens := Tokens{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	if err := s.setTokens(tokens); err != nil {
		return err
	}
	s.logger.Debug("access token refreshed")
	return nil
}

// OnExpired registers fn to run when the session expires.
func (s *Session) OnExpired(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Expire drops the credentials and notifies the expired handlers.
func (s *Session) Expire() {
	if err := s.Clear(); err != nil {
		s.logger.Warn("failed clearing expired tokens", zap.Error(err))
	}

	s.mu.RLock()
	handlers := append([]func(){}, s.handlers...)
	s.mu.RUnlock()

	s.logger.Info("session expired")
	for _, fn := range handlers {
		fn()
	}
}

// Clear logs out: the in-memory and stored tokens are removed.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

func (s *Session) setTokens(tokens Tokens) error {
	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()

	if err := s.store.Save(tokens); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

func detailString(detail any) string {
	switch d := detail.(type) {
	case nil:
		return ""
	case string:
		return d
	default:
		return fmt.Sprint(d)
	}
}
