package gds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const sessionInvalidMessage = "session is not valid"

// SupplierError is the {ErrorCode, ErrorMessage} object the supplier embeds in its bodies.
type SupplierError struct {
	Code    int    `json:"ErrorCode"`
	Message string `json:"ErrorMessage"`
}

func (e SupplierError) Failed() bool {
	return e.Code != 0
}

// SessionInvalid reports whether the supplier rejected the TokenId.
func (e SupplierError) SessionInvalid() bool {
	return e.Code != 0 && strings.Contains(strings.ToLower(e.Message), sessionInvalidMessage)
}

// Response is a decoded supplier reply. Body is kept verbatim so business
// failures can be passed through to callers unmodified.
type Response struct {
	Endpoint   Endpoint
	StatusCode int
	Body       json.RawMessage
	Error      SupplierError
}

func (r *Response) Failed() bool {
	return r.Error.Failed()
}

// Err returns a *BusinessError when the supplier reported a nonzero code.
func (r *Response) Err() error {
	if !r.Failed() {
		return nil
	}
	return &BusinessError{
		Endpoint: r.Endpoint,
		Code:     r.Error.Code,
		Message:  r.Error.Message,
		Payload:  r.Body,
	}
}

// Payload unwraps the outer "Response" envelope, falling back to the whole body.
func (r *Response) Payload() json.RawMessage {
	var outer struct {
		Response json.RawMessage `json:"Response"`
	}
	if err := json.Unmarshal(r.Body, &outer); err != nil || isNull(outer.Response) {
		return r.Body
	}
	return outer.Response
}

// Decode unmarshals the whole body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSupplierResponse, r.Endpoint, err)
	}
	return nil
}

type envelope struct {
	Error    *SupplierError  `json:"Error"`
	Response json.RawMessage `json:"Response"`
}

type nestedEnvelope struct {
	Error *SupplierError `json:"Error"`
}

// extractError finds the embedded error object for ep. The supplier places it
// at the top level for some operations and under "Response" for others.
func extractError(ep Endpoint, body []byte) (SupplierError, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return SupplierError{}, fmt.Errorf("%w: %s: %v", ErrInvalidSupplierResponse, ep, err)
	}

	top := topLevelError(env)
	nested := nestedError(env)

	switch ep {
	case EndpointFareRule, EndpointAuthenticate:
		return top, nil
	case EndpointFareQuote, EndpointSSR:
		return nested, nil
	default:
		// Search, Book and Ticket document a top-level error but holds are
		// rejected under Response.Error in practice.
		if top.Failed() {
			return top, nil
		}
		return nested, nil
	}
}

func topLevelError(env envelope) SupplierError {
	if env.Error == nil {
		return SupplierError{}
	}
	return *env.Error
}

func nestedError(env envelope) SupplierError {
	if isNull(env.Response) {
		return SupplierError{}
	}
	var nested nestedEnvelope
	// a non-object Response carries no error
	if err := json.Unmarshal(env.Response, &nested); err != nil || nested.Error == nil {
		return SupplierError{}
	}
	return *nested.Error
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
