package gds

import (
	"net/http"
	"time"

	"flightbroker/pkg/logger"
)

type TransportMiddleware func(http.RoundTripper) http.RoundTripper

// InterceptorTransport runs the request through Middlewares before Transport.
type InterceptorTransport struct {
	Transport   http.RoundTripper
	Middlewares []TransportMiddleware
}

func (t *InterceptorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	for _, middleware := range t.Middlewares {
		transport = middleware(transport)
	}
	return transport.RoundTrip(req)
}

type loggingTransport struct {
	next   http.RoundTripper
	logger logger.Client
}

func NewLoggingMiddleware(log logger.Client) TransportMiddleware {
	return func(rt http.RoundTripper) http.RoundTripper {
		return &loggingTransport{next: rt, logger: log}
	}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	fields := []logger.Field{
		{Key: "label", Value: "outgoing-request"},
		{Key: "method", Value: req.Method},
		{Key: "url", Value: req.URL.String()},
	}

	resp, err := t.next.RoundTrip(req)
	fields = append(fields, logger.Field{Key: "duration", Value: time.Since(start).Seconds()})
	if err != nil {
		t.logger.Error("supplier request failed", append(fields, logger.Field{Key: "error", Value: err})...)
		return nil, err
	}

	t.logger.Info("supplier request", append(fields, logger.Field{Key: "code", Value: resp.StatusCode})...)
	return resp, nil
}

// NewHTTPClient returns a client whose requests are logged and bounded by timeout.
func NewHTTPClient(timeout time.Duration, log logger.Client) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &InterceptorTransport{
			Transport:   http.DefaultTransport,
			Middlewares: []TransportMiddleware{NewLoggingMiddleware(log)},
		},
	}
}
