package booking

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"flightbroker/pkg/cache"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (m *memCache) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestPayloadStore_SaveAndGet(t *testing.T) {
	mem := newMemCache()
	store := NewPayloadStore(mem)
	p := testAttempt(false)

	hash, err := store.Save(context.Background(), Payload{
		TraceID:       p.TraceID,
		ResultIndex:   p.ResultIndex,
		Passengers:    p.Passengers,
		OrderID:       "order_9",
		GoogleID:      "g-1",
		PaymentStatus: StatusConfirmed,
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), hash)
	assert.Equal(t, 24*time.Hour, mem.ttls["booking:payload:"+hash])

	got, err := store.Get(context.Background(), hash)

	require.NoError(t, err)
	assert.Equal(t, hash, got.BookingHash)
	assert.Equal(t, StatusPending, got.PaymentStatus)
	assert.Equal(t, "order_9", got.OrderID)
	require.Len(t, got.Passengers, 2)
	assert.Equal(t, "Asha", got.Passengers[0].FirstName)
}

func TestPayloadStore_SaveUsesFreshHashes(t *testing.T) {
	store := NewPayloadStore(newMemCache())

	first, err := store.Save(context.Background(), Payload{TraceID: "t"})
	require.NoError(t, err)
	second, err := store.Save(context.Background(), Payload{TraceID: "t"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPayloadStore_Get(t *testing.T) {
	t.Run("miss", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("booking:payload:abc").RedisNil()

		_, err := NewPayloadStore(cache.NewFromClient(client)).Get(context.Background(), "abc")

		assert.ErrorIs(t, err, ErrPayloadNotFound)
	})

	t.Run("redis failure", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("booking:payload:abc").SetErr(errors.New("i/o timeout"))

		_, err := NewPayloadStore(cache.NewFromClient(client)).Get(context.Background(), "abc")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrPayloadNotFound)
	})

	t.Run("hit", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("booking:payload:abc").SetVal(`{"isLCC":true,"TraceId":"t1","orderId":"o1","paymentStatus":"Pending","bookingHash":"abc"}`)

		got, err := NewPayloadStore(cache.NewFromClient(client)).Get(context.Background(), "abc")

		require.NoError(t, err)
		assert.True(t, got.IsLCC)
		assert.Equal(t, "o1", got.OrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
