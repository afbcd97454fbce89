package oauth2

import (
	"context"
	"time"
)

// Provider is an identity provider able to run the authorization code flow.
type Provider interface {
	Name() string
	AuthURL(state string, nonce string) string
	Exchange(ctx context.Context, code string, nonce string) (*UserInfo, error)
}

// UserInfo is the verified profile returned by a provider. ID is the
// provider's subject, e.g. the Google account id.
type UserInfo struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	Name          string    `json:"name"`
	Picture       string    `json:"picture"`
	Provider      string    `json:"provider"`
	CreatedAt     time.Time `json:"created_at"`
}
