package gds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"flightbroker/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "flightbroker/pkg/gds"

// SearchSegment is one requested origin/destination pair.
type SearchSegment struct {
	Origin                 string `json:"Origin"`
	Destination            string `json:"Destination"`
	FlightCabinClass       int    `json:"FlightCabinClass"`
	PreferredDepartureTime string `json:"PreferredDepartureTime"`
	PreferredArrivalTime   string `json:"PreferredArrivalTime"`
}

type SearchRequest struct {
	AdultCount        int             `json:"AdultCount"`
	ChildCount        int             `json:"ChildCount"`
	InfantCount       int             `json:"InfantCount"`
	DirectFlight      bool            `json:"DirectFlight"`
	OneStopFlight     bool            `json:"OneStopFlight"`
	JourneyType       int             `json:"JourneyType"`
	PreferredAirlines []string        `json:"PreferredAirlines"`
	Segments          []SearchSegment `json:"Segments"`
	Sources           []string        `json:"Sources"`
}

// ResultRef addresses one priced itinerary within a search trace.
type ResultRef struct {
	TraceId     string `json:"TraceId"`
	ResultIndex string `json:"ResultIndex"`
}

// Client issues supplier calls with the session token attached, retrying
// exactly once when the supplier reports an invalid session.
type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
	endUserIP  string
	tokens     TokenManager
	logger     logger.Client
	tracer     trace.Tracer
	calls      metric.Int64Counter
}

func NewClient(httpClient *http.Client, endpoints Endpoints, endUserIP string, tokens TokenManager, log logger.Client) (*Client, error) {
	if err := endpoints.validate(); err != nil {
		return nil, err
	}

	calls, err := otel.Meter(instrumentationName).Int64Counter(
		"gds.requests",
		metric.WithDescription("Supplier calls by endpoint and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create gds counter: %w", err)
	}

	return &Client{
		httpClient: httpClient,
		endpoints:  endpoints,
		endUserIP:  endUserIP,
		tokens:     tokens,
		logger:     log,
		tracer:     otel.Tracer(instrumentationName),
		calls:      calls,
	}, nil
}

func (c *Client) Search(ctx context.Context, req SearchRequest) (*Response, error) {
	return c.call(ctx, EndpointSearch, req)
}

func (c *Client) FareRule(ctx context.Context, ref ResultRef) (*Response, error) {
	return c.call(ctx, EndpointFareRule, ref)
}

func (c *Client) FareQuote(ctx context.Context, ref ResultRef) (*Response, error) {
	return c.call(ctx, EndpointFareQuote, ref)
}

// SSR fetches special service data, including the seat maps.
func (c *Client) SSR(ctx context.Context, ref ResultRef) (*Response, error) {
	return c.call(ctx, EndpointSSR, ref)
}

// Book places a non-LCC hold.
func (c *Client) Book(ctx context.Context, req any) (*Response, error) {
	return c.call(ctx, EndpointBook, req)
}

// Ticket issues an LCC ticket or tickets a previous hold.
func (c *Client) Ticket(ctx context.Context, req any) (*Response, error) {
	return c.call(ctx, EndpointTicket, req)
}

// call returns the supplier response even when it carries a business error;
// only transport, HTTP and decoding failures are returned as errors.
func (c *Client) call(ctx context.Context, ep Endpoint, fields any) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "gds."+string(ep), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	resp, err := c.callWithRetry(ctx, ep, fields)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case resp.Failed():
		outcome = "business_error"
		span.SetAttributes(attribute.Int("gds.error_code", resp.Error.Code))
	}
	c.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", string(ep)),
		attribute.String("outcome", outcome),
	))

	return resp, err
}

func (c *Client) callWithRetry(ctx context.Context, ep Endpoint, fields any) (*Response, error) {
	payload, err := requestFields(fields)
	if err != nil {
		return nil, err
	}

	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.attempt(ctx, ep, payload, token)
	if !errors.Is(err, ErrSessionExpired) {
		return resp, err
	}

	c.logger.Info("gds session invalid, re-authenticating", logger.Field{Key: "endpoint", Value: string(ep)})
	token, err = c.tokens.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	resp, err = c.attempt(ctx, ep, payload, token)
	if errors.Is(err, ErrSessionExpired) {
		c.logger.Warn("gds session still invalid after re-authentication", logger.Field{Key: "endpoint", Value: string(ep)})
		return resp, nil
	}
	return resp, err
}

// attempt performs one HTTP round trip. A session-invalid reply is returned
// together with ErrSessionExpired.
func (c *Client) attempt(ctx context.Context, ep Endpoint, payload map[string]json.RawMessage, token string) (*Response, error) {
	payload["EndUserIp"] = mustMarshal(c.endUserIP)
	payload["TokenId"] = mustMarshal(token)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gds: marshal %s request: %w", ep, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.url(ep), bytes.NewReader(body))
	if err != nil {
		return nil, &UnreachableError{Endpoint: ep, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{Endpoint: ep, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &UnreachableError{Endpoint: ep, StatusCode: httpResp.StatusCode, Err: err}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		unreachable := &UnreachableError{
			Endpoint:   ep,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", httpResp.StatusCode),
		}
		if json.Valid(raw) {
			unreachable.Body = raw
		}
		return nil, unreachable
	}

	supplierErr, err := extractError(ep, raw)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Endpoint:   ep,
		StatusCode: httpResp.StatusCode,
		Body:       raw,
		Error:      supplierErr,
	}
	if supplierErr.SessionInvalid() {
		return resp, ErrSessionExpired
	}
	return resp, nil
}

// requestFields flattens the caller's request into a field map so the
// identity fields can be merged over it.
func requestFields(fields any) (map[string]json.RawMessage, error) {
	payload := make(map[string]json.RawMessage)
	if fields == nil {
		return payload, nil
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("gds: marshal request fields: %w", err)
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("gds: request must be a JSON object: %w", err)
	}
	if payload == nil {
		payload = make(map[string]json.RawMessage)
	}
	return payload, nil
}

func mustMarshal(s string) json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}
