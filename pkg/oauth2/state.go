package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flightbroker/pkg/cache"
)

var ErrStateNotFound = errors.New("state not found")

const stateKeyPrefix = "oauth2:state:"

// pendingLogin is what a login needs to remember between the redirect to
// the provider and the callback.
type pendingLogin struct {
	Nonce    string `json:"nonce"`
	Redirect string `json:"redirect,omitempty"`
}

// StateStorage keeps pending logins in the shared cache so any replica can
// serve the callback.
type StateStorage struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewStateStorage(c cache.Cache, ttl time.Duration) *StateStorage {
	return &StateStorage{cache: c, ttl: ttl}
}

func (s *StateStorage) Save(ctx context.Context, state string, login pendingLogin) error {
	raw, err := json.Marshal(login)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, stateKeyPrefix+state, string(raw), s.ttl)
}

// Take returns the pending login for state and removes it. A state can be used once.
func (s *StateStorage) Take(ctx context.Context, state string) (*pendingLogin, error) {
	raw, err := s.cache.Get(ctx, stateKeyPrefix+state)
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	_ = s.cache.Del(ctx, stateKeyPrefix+state)

	var login pendingLogin
	if err := json.Unmarshal([]byte(raw), &login); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &login, nil
}
