package gds

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrAuth means the authenticate call failed or returned no token.
	ErrAuth = errors.New("gds: authentication failed")
	// ErrSessionExpired is consumed by the client's single retry and never returned to callers.
	ErrSessionExpired = errors.New("gds: session expired")
	// ErrInvalidSupplierResponse means an expected field was structurally absent.
	ErrInvalidSupplierResponse = errors.New("gds: invalid supplier response")
)

// UnreachableError is a transport or HTTP level failure talking to the supplier.
type UnreachableError struct {
	Endpoint   Endpoint
	StatusCode int
	Body       json.RawMessage
	Err        error
}

func (e *UnreachableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gds: %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("gds: %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// BusinessError is a nonzero supplier error code on an otherwise successful call.
// Payload is the supplier body exactly as received.
type BusinessError struct {
	Endpoint Endpoint
	Code     int
	Message  string
	Payload  json.RawMessage
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("gds: %s rejected with code %d: %s", e.Endpoint, e.Code, e.Message)
}
