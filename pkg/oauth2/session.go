package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flightbroker/pkg/cache"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "oauth2:session:"

// Session is a signed-in browser. UserID is the internal user key.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id,string"`
	UserInfo  *UserInfo `json:"user_info"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore keeps sessions in the shared cache; expiry is the cache TTL.
type SessionStore struct {
	cache cache.Cache
	ttl   time.Duration
	clock func() time.Time
}

func NewSessionStore(c cache.Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl, clock: time.Now}
}

func (s *SessionStore) Create(ctx context.Context, userID int64, info *UserInfo) (*Session, error) {
	sessionID, err := GenerateRandomString(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := s.clock()
	session := &Session{
		ID:        sessionID,
		UserID:    userID,
		UserInfo:  info,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+sessionID, string(raw), s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := s.cache.Get(ctx, sessionKeyPrefix+sessionID)
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.cache.Del(ctx, sessionKeyPrefix+sessionID)
}
