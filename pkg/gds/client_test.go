package gds

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"flightbroker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTokens struct {
	mock.Mock
}

func (m *mockTokens) GetToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockTokens) Authenticate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

const sessionExpiredBody = `{"Response":{"Error":{"ErrorCode":6,"ErrorMessage":"Session is not valid"}}}`

// newSupplier serves replies in order and records the TokenId of every request.
func newSupplier(t *testing.T, replies ...string) (*httptest.Server, *[]string, *int32) {
	t.Helper()
	var calls int32
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "10.0.0.1", body["EndUserIp"])
		seen = append(seen, body["TokenId"].(string))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(replies[int(n)-1]))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen, &calls
}

func newTestClient(t *testing.T, srv *httptest.Server, tokens TokenManager) *Client {
	t.Helper()
	endpoints := Endpoints{
		Search:    srv.URL + "/Search",
		FareRule:  srv.URL + "/FareRule",
		FareQuote: srv.URL + "/FareQuote",
		SSR:       srv.URL + "/SSR",
		Book:      srv.URL + "/Book",
		Ticket:    srv.URL + "/Ticket",
	}
	client, err := NewClient(srv.Client(), endpoints, "10.0.0.1", tokens, logger.Nop{})
	require.NoError(t, err)
	return client
}

func TestClient_SessionRetry(t *testing.T) {
	ref := ResultRef{TraceId: "trace-1", ResultIndex: "OB1"}

	t.Run("success needs no re-authentication", func(t *testing.T) {
		srv, seen, calls := newSupplier(t, `{"Response":{"Error":{"ErrorCode":0},"Results":[]}}`)
		tokens := new(mockTokens)
		tokens.On("GetToken", mock.Anything).Return("tok-1", nil).Once()
		client := newTestClient(t, srv, tokens)

		resp, err := client.FareQuote(context.Background(), ref)

		require.NoError(t, err)
		assert.False(t, resp.Failed())
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		assert.Equal(t, []string{"tok-1"}, *seen)
		tokens.AssertNotCalled(t, "Authenticate", mock.Anything)
	})

	t.Run("expired session re-authenticates and retries once", func(t *testing.T) {
		srv, seen, calls := newSupplier(t, sessionExpiredBody, `{"Response":{"Error":{"ErrorCode":0},"Fare":{}}}`)
		tokens := new(mockTokens)
		tokens.On("GetToken", mock.Anything).Return("tok-stale", nil).Once()
		tokens.On("Authenticate", mock.Anything).Return("tok-fresh", nil).Once()
		client := newTestClient(t, srv, tokens)

		resp, err := client.FareQuote(context.Background(), ref)

		require.NoError(t, err)
		assert.False(t, resp.Failed())
		assert.Equal(t, int32(2), atomic.LoadInt32(calls))
		assert.Equal(t, []string{"tok-stale", "tok-fresh"}, *seen)
		tokens.AssertNumberOfCalls(t, "Authenticate", 1)
	})

	t.Run("second expiry is returned without another retry", func(t *testing.T) {
		srv, _, calls := newSupplier(t, sessionExpiredBody, sessionExpiredBody, sessionExpiredBody)
		tokens := new(mockTokens)
		tokens.On("GetToken", mock.Anything).Return("tok-stale", nil).Once()
		tokens.On("Authenticate", mock.Anything).Return("tok-fresh", nil).Once()
		client := newTestClient(t, srv, tokens)

		resp, err := client.SSR(context.Background(), ref)

		require.NoError(t, err)
		assert.True(t, resp.Failed())
		assert.True(t, resp.Error.SessionInvalid())
		assert.Equal(t, int32(2), atomic.LoadInt32(calls))
		tokens.AssertNumberOfCalls(t, "Authenticate", 1)
	})

	t.Run("failed re-authentication surfaces the auth error", func(t *testing.T) {
		srv, _, calls := newSupplier(t, sessionExpiredBody)
		tokens := new(mockTokens)
		tokens.On("GetToken", mock.Anything).Return("tok-stale", nil).Once()
		tokens.On("Authenticate", mock.Anything).Return("", ErrAuth).Once()
		client := newTestClient(t, srv, tokens)

		_, err := client.FareQuote(context.Background(), ref)

		assert.ErrorIs(t, err, ErrAuth)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	})

	t.Run("business errors other than expiry are not retried", func(t *testing.T) {
		srv, _, calls := newSupplier(t, `{"Error":{"ErrorCode":3,"ErrorMessage":"No result found"}}`)
		tokens := new(mockTokens)
		tokens.On("GetToken", mock.Anything).Return("tok-1", nil).Once()
		client := newTestClient(t, srv, tokens)

		resp, err := client.FareRule(context.Background(), ref)

		require.NoError(t, err)
		assert.Equal(t, 3, resp.Error.Code)
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))

		var business *BusinessError
		require.True(t, errors.As(resp.Err(), &business))
		assert.JSONEq(t, `{"Error":{"ErrorCode":3,"ErrorMessage":"No result found"}}`, string(business.Payload))
	})
}

func TestClient_Failures(t *testing.T) {
	t.Run("HTTP error status is unreachable with the status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"upstream down"}`))
		}))
		defer srv.Close()
		tokens := new(mockTokens)
		tokens.On("GetToken", mock.Anything).Return("tok-1", nil)
		client := newTestClient(t, srv, tokens)

		_, err := client.Search(context.Background(), SearchRequest{JourneyType: 1})

		var unreachable *UnreachableError
		require.True(t, errors.As(err, &unreachable))
		assert.Equal(t, http.StatusBadGateway, unreachable.StatusCode)
		assert.JSONEq(t, `{"message":"upstream down"}`, string(unreachable.Body))
	})

	t.Run("transport failure is unreachable without status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		tokens := new(mockTokens)
		tokens.On("GetToken", mock.Anything).Return("tok-1", nil)
		client := newTestClient(t, srv, tokens)
		srv.Close()

		_, err := client.Ticket(context.Background(), map[string]any{"TraceId": "t"})

		var unreachable *UnreachableError
		require.True(t, errors.As(err, &unreachable))
		assert.Zero(t, unreachable.StatusCode)
	})

	t.Run("non-JSON body is an invalid supplier response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>oops</html>`))
		}))
		defer srv.Close()
		tokens := new(mockTokens)
		tokens.On("GetToken", mock.Anything).Return("tok-1", nil)
		client := newTestClient(t, srv, tokens)

		_, err := client.Book(context.Background(), map[string]any{"TraceId": "t"})

		assert.ErrorIs(t, err, ErrInvalidSupplierResponse)
	})

	t.Run("token failure stops before any supplier call", func(t *testing.T) {
		srv, _, calls := newSupplier(t)
		tokens := new(mockTokens)
		tokens.On("GetToken", mock.Anything).Return("", ErrAuth)
		client := newTestClient(t, srv, tokens)

		_, err := client.Search(context.Background(), SearchRequest{})

		assert.ErrorIs(t, err, ErrAuth)
		assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	})
}

func TestClient_IdentityFieldsOverrideCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tok-1", body["TokenId"])
		assert.Equal(t, "10.0.0.1", body["EndUserIp"])
		assert.Equal(t, "PAYMM_1", body["AgentReferenceNo"])
		_, _ = w.Write([]byte(`{"Response":{"Error":{"ErrorCode":0}}}`))
	}))
	defer srv.Close()
	tokens := new(mockTokens)
	tokens.On("GetToken", mock.Anything).Return("tok-1", nil)
	client := newTestClient(t, srv, tokens)

	_, err := client.Ticket(context.Background(), map[string]any{
		"AgentReferenceNo": "PAYMM_1",
		"TokenId":          "caller-supplied",
		"EndUserIp":        "1.1.1.1",
	})

	require.NoError(t, err)
}

func TestNewClient_RejectsMissingEndpoints(t *testing.T) {
	endpoints := Endpoints{
		Search:    "http://gds.local/Search",
		FareRule:  "http://gds.local/FareRule",
		FareQuote: "http://gds.local/FareQuote",
		Book:      "http://gds.local/Book",
	}

	client, err := NewClient(http.DefaultClient, endpoints, "10.0.0.1", new(mockTokens), logger.Nop{})

	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SSR, Ticket")
}
