package oauth2

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flightbroker/pkg/cache"
	"flightbroker/pkg/logger"
)

var ErrInvalidState = errors.New("invalid state")

// UserLinker maps a verified identity to an internal user, creating it on
// first sign-in.
type UserLinker interface {
	Link(ctx context.Context, info *UserInfo) (int64, error)
}

// Manager runs the sign-in flow for a single provider.
type Manager struct {
	provider    Provider
	states      *StateStorage
	sessions    *SessionStore
	users       UserLinker
	frontendURL string
	logger      logger.Client
}

type ManagerConfig struct {
	FrontendURL    string
	StateTimeout   time.Duration
	SessionTimeout time.Duration
}

func NewManager(provider Provider, c cache.Cache, users UserLinker, cfg ManagerConfig, log logger.Client) *Manager {
	if cfg.StateTimeout == 0 {
		cfg.StateTimeout = 10 * time.Minute
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 24 * time.Hour
	}
	return &Manager{
		provider:    provider,
		states:      NewStateStorage(c, cfg.StateTimeout),
		sessions:    NewSessionStore(c, cfg.SessionTimeout),
		users:       users,
		frontendURL: cfg.FrontendURL,
		logger:      log,
	}
}

// AuthURL starts a login. redirect is where the browser lands afterwards;
// anything outside the frontend falls back to the frontend root.
func (m *Manager) AuthURL(ctx context.Context, redirect string) (string, error) {
	state, err := GenerateRandomString(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	nonce, err := GenerateRandomString(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	login := pendingLogin{Nonce: nonce, Redirect: m.safeRedirect(redirect)}
	if err := m.states.Save(ctx, state, login); err != nil {
		return "", fmt.Errorf("failed to save state: %w", err)
	}
	return m.provider.AuthURL(state, nonce), nil
}

// HandleCallback completes a login and returns the new session and the
// redirect target chosen when the login started.
func (m *Manager) HandleCallback(ctx context.Context, code, state string) (*Session, string, error) {
	login, err := m.states.Take(ctx, state)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	info, err := m.provider.Exchange(ctx, code, login.Nonce)
	if err != nil {
		return nil, "", fmt.Errorf("callback failed: %w", err)
	}

	userID, err := m.users.Link(ctx, info)
	if err != nil {
		return nil, "", fmt.Errorf("failed to link user: %w", err)
	}

	session, err := m.sessions.Create(ctx, userID, info)
	if err != nil {
		return nil, "", err
	}

	m.logger.Info("user signed in",
		logger.Field{Key: "provider", Value: m.provider.Name()},
		logger.Field{Key: "user_id", Value: userID},
	)

	redirect := login.Redirect
	if redirect == "" {
		redirect = m.frontendURL
	}
	return session, redirect, nil
}

func (m *Manager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	return m.sessions.Get(ctx, sessionID)
}

func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	return m.sessions.Delete(ctx, sessionID)
}

func (m *Manager) safeRedirect(redirect string) string {
	switch {
	case redirect == "":
		return ""
	case m.frontendURL != "" && strings.HasPrefix(redirect, m.frontendURL):
		return redirect
	case strings.HasPrefix(redirect, "/") && !strings.HasPrefix(redirect, "//"):
		return redirect
	}
	return ""
}
