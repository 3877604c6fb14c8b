package core

import (
	"errors"
	"fmt"
)

// ServiceError represents an error returned by the remote service with
// full context.
type ServiceError struct {
	Service   string
	Status    int
	RequestID string
	Code      string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (status=%d, code=%s, request_id=%s)",
			e.Service, e.Message, e.Status, e.Code, e.RequestID)
	}
	return fmt.Sprintf("%s: %s (status=%d, code=%s)",
		e.Service, e.Message, e.Status, e.Code)
}

// Unwrap returns the underlying error for error chaining.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Sentinel errors for classification.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrBadRequest   = errors.New("bad request")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network error")
	ErrDecode       = errors.New("decode error")
)

// Driver errors.
var (
	// ErrMissingCredential means no API key is configured. Fatal; surfaced
	// before the first network call.
	ErrMissingCredential = errors.New("missing credential: set OPENAI_API_KEY or store a key with `cfgbench keys set`")

	// ErrUnknownTool means the service requested a tool name that is not
	// registered. Reported back to the service as a failed tool result.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrArgumentParse means a tool's argument payload did not parse against
	// its expected shape. Reported back as a failed tool result.
	ErrArgumentParse = errors.New("argument parse error")

	// ErrLoopExceeded means the round-trip cap was reached before the
	// service produced a final answer. Fatal.
	ErrLoopExceeded = errors.New("round-trip limit exceeded")
)
