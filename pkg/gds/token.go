package gds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"flightbroker/pkg/cache"
	"flightbroker/pkg/logger"
)

const tokenCacheKey = "gds:token"

// TokenManager owns the supplier session token.
type TokenManager interface {
	// GetToken returns the held token, authenticating only when none is held.
	GetToken(ctx context.Context) (string, error)
	// Authenticate always calls the supplier and replaces the held token.
	Authenticate(ctx context.Context) (string, error)
}

type Credentials struct {
	ClientID  string
	UserName  string
	Password  string
	EndUserIP string
}

type authRequest struct {
	ClientId  string `json:"ClientId"`
	UserName  string `json:"UserName"`
	Password  string `json:"Password"`
	EndUserIp string `json:"EndUserIp"`
}

type authResponse struct {
	TokenId string         `json:"TokenId"`
	Error   *SupplierError `json:"Error"`
}

// SessionTokens is a TokenManager holding one process-wide token. Concurrent
// Authenticate calls are last-writer-wins. When a cache is set, the token is
// shared with other replicas through it.
type SessionTokens struct {
	httpClient *http.Client
	authURL    string
	creds      Credentials
	cache      cache.Cache
	ttl        time.Duration
	logger     logger.Client
	token      atomic.Pointer[string]
}

func NewSessionTokens(httpClient *http.Client, authURL string, creds Credentials, shared cache.Cache, ttl time.Duration, log logger.Client) *SessionTokens {
	return &SessionTokens{
		httpClient: httpClient,
		authURL:    authURL,
		creds:      creds,
		cache:      shared,
		ttl:        ttl,
		logger:     log,
	}
}

func (s *SessionTokens) GetToken(ctx context.Context) (string, error) {
	if held := s.token.Load(); held != nil && *held != "" {
		return *held, nil
	}

	if s.cache != nil {
		shared, err := s.cache.Get(ctx, tokenCacheKey)
		switch {
		case err == nil && shared != "":
			s.token.Store(&shared)
			s.logger.Debug("using shared gds token", logger.Field{Key: "token", Value: tokenPrefix(shared)})
			return shared, nil
		case err != nil && !errors.Is(err, cache.ErrMiss):
			s.logger.Warn("failed to read shared gds token", logger.Field{Key: "err", Value: err})
		}
	}

	s.logger.Info("no gds token held, authenticating")
	return s.Authenticate(ctx)
}

func (s *SessionTokens) Authenticate(ctx context.Context) (string, error) {
	body, err := json.Marshal(authRequest{
		ClientId:  s.creds.ClientID,
		UserName:  s.creds.UserName,
		Password:  s.creds.Password,
		EndUserIp: s.creds.EndUserIP,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrAuth, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrAuth, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	}

	var decoded authResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrAuth, err)
	}
	if decoded.TokenId == "" {
		msg := "no token returned"
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		s.logger.Error("gds authentication returned no token", logger.Field{Key: "reason", Value: msg})
		return "", fmt.Errorf("%w: %s", ErrAuth, msg)
	}

	token := decoded.TokenId
	s.token.Store(&token)
	s.logger.Info("gds authentication successful", logger.Field{Key: "token", Value: tokenPrefix(token)})

	if s.cache != nil {
		if err := s.cache.Set(ctx, tokenCacheKey, token, s.ttl); err != nil {
			s.logger.Warn("failed to share gds token", logger.Field{Key: "err", Value: err})
		}
	}

	return token, nil
}

func tokenPrefix(token string) string {
	if len(token) <= 6 {
		return "***"
	}
	return token[:6] + "..."
}
