package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flightbroker/pkg/cache"
)

var ErrPayloadNotFound = errors.New("booking session not found")

const (
	payloadKeyPrefix = "booking:payload:"
	payloadTTL       = 24 * time.Hour
	hashBytes        = 32
)

// Payload is a booking attempt parked across the payment redirect.
type Payload struct {
	IsLCC         bool        `json:"isLCC"`
	TraceID       string      `json:"TraceId"`
	ResultIndex   string      `json:"ResultIndex"`
	Passengers    []Passenger `json:"Passengers"`
	OrderID       string      `json:"orderId"`
	GoogleID      string      `json:"googleId"`
	PaymentStatus Status      `json:"paymentStatus"`
	BookingHash   string      `json:"bookingHash"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type PayloadStore struct {
	cache cache.Cache
	clock func() time.Time
}

func NewPayloadStore(c cache.Cache) *PayloadStore {
	return &PayloadStore{cache: c, clock: time.Now}
}

// Save stores p under a fresh random hash and returns the hash.
func (s *PayloadStore) Save(ctx context.Context, p Payload) (string, error) {
	hash, err := newBookingHash()
	if err != nil {
		return "", err
	}

	p.BookingHash = hash
	p.PaymentStatus = StatusPending
	p.CreatedAt = s.clock().UTC()

	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode booking payload: %w", err)
	}
	if err := s.cache.Set(ctx, payloadKeyPrefix+hash, string(raw), payloadTTL); err != nil {
		return "", fmt.Errorf("failed to store booking payload: %w", err)
	}
	return hash, nil
}

func (s *PayloadStore) Get(ctx context.Context, hash string) (*Payload, error) {
	raw, err := s.cache.Get(ctx, payloadKeyPrefix+hash)
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrPayloadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking payload: %w", err)
	}

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode booking payload: %w", err)
	}
	return &p, nil
}

func newBookingHash() (string, error) {
	b := make([]byte, hashBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate booking hash: %w", err)
	}
	return hex.EncodeToString(b), nil
}
