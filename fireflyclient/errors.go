package fireflyclient

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching. The concrete error types below carry
// the details.
var (
	// ErrInvalidInput matches every validation failure caught before any
	// network call (empty prompt, bad size string, unknown enum value).
	ErrInvalidInput = errors.New("fireflyclient: invalid input")

	// ErrInvalidSize matches a malformed size string specifically.
	ErrInvalidSize = errors.New("fireflyclient: invalid size format")

	// ErrAuthentication matches a failed token exchange inside Generate.
	ErrAuthentication = errors.New("fireflyclient: authentication failed")

	// ErrNetwork matches transport-level failures reaching the generation
	// endpoint (connection errors, timeouts).
	ErrNetwork = errors.New("fireflyclient: network error")

	// ErrUpstream matches non-2xx responses from the generation endpoint.
	ErrUpstream = errors.New("fireflyclient: firefly api error")

	// ErrMalformedResponse matches 2xx responses without an image URL.
	ErrMalformedResponse = errors.New("fireflyclient: malformed response")
)

// InputError reports invalid caller input, detected before any network call.
type InputError struct {
	Reason string
}

// Error returns a message suitable for direct display.
func (e *InputError) Error() string {
	return "fireflyclient: invalid input: " + e.Reason
}

// Is enables errors.Is(err, ErrInvalidInput).
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// SizeError reports a size string that does not parse as "<width>x<height>".
type SizeError struct {
	Value string
}

// Error returns a message suitable for direct display.
func (e *SizeError) Error() string {
	return fmt.Sprintf("fireflyclient: invalid size format: %q (use the form \"1024x1024\")", e.Value)
}

// Is enables matching against both ErrInvalidSize and ErrInvalidInput.
func (e *SizeError) Is(target error) bool {
	return target == ErrInvalidSize || target == ErrInvalidInput
}

// AuthError wraps a token-exchange failure that occurred inside Generate. The
// generation call is never attempted in that case.
type AuthError struct {
	Err error
}

// Error returns a message suitable for direct display.
func (e *AuthError) Error() string {
	return fmt.Sprintf("fireflyclient: authentication failed: %v", e.Err)
}

// Unwrap returns the underlying token error (typically a
// *imsclient.TokenRequestError).
func (e *AuthError) Unwrap() error { return e.Err }

// Is enables errors.Is(err, ErrAuthentication).
func (e *AuthError) Is(target error) bool { return target == ErrAuthentication }

// TransportError reports a transport-level failure reaching the generation
// endpoint.
type TransportError struct {
	Err error
}

// Error returns a message suitable for direct display.
func (e *TransportError) Error() string {
	return fmt.Sprintf("fireflyclient: network error: %v", e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error { return e.Err }

// Is enables errors.Is(err, ErrNetwork).
func (e *TransportError) Is(target error) bool { return target == ErrNetwork }

// APIError reports a non-2xx response from the generation endpoint. Message is
// the upstream error.message when the body parsed as JSON, otherwise the raw
// body text.
type APIError struct {
	StatusCode int
	Message    string
}

// Error returns a message suitable for direct display.
func (e *APIError) Error() string {
	return fmt.Sprintf("fireflyclient: firefly api error: status %d: %s", e.StatusCode, e.Message)
}

// Is enables errors.Is(err, ErrUpstream).
func (e *APIError) Is(target error) bool { return target == ErrUpstream }

// MalformedResponseError reports a 2xx response that lacks
// outputs[0].image.url. Detail carries any error message found in the body for
// diagnostics.
type MalformedResponseError struct {
	Detail string
}

// Error returns a message suitable for direct display.
func (e *MalformedResponseError) Error() string {
	msg := "fireflyclient: no image URL found in response"
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is enables errors.Is(err, ErrMalformedResponse).
func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }
