package openai

import (
	"encoding/json"
	"net/http"

	"github.com/loopworks/cfgbench/core"
)

const serviceName = "openai"

// errorResponse represents the service's error envelope:
// {"error":{"message":"...","type":"...","code":"..."}}
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// normalizeError converts an HTTP error response to a ServiceError with the
// appropriate sentinel.
func normalizeError(status int, body []byte, requestID string) error {
	var errResp errorResponse
	_ = json.Unmarshal(body, &errResp)

	message := errResp.Error.Message
	if message == "" {
		message = http.StatusText(status)
	}

	code := errResp.Error.Code
	if code == "" {
		code = errResp.Error.Type
	}

	return &core.ServiceError{
		Service:   serviceName,
		Status:    status,
		RequestID: requestID,
		Code:      code,
		Message:   message,
		Err:       sentinelForStatus(status),
	}
}

// sentinelForStatus maps an HTTP status code to a core sentinel error.
func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return core.ErrBadRequest
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.ErrUnauthorized
	case status == http.StatusTooManyRequests:
		return core.ErrRateLimited
	default:
		return core.ErrServer
	}
}

// newNetworkError wraps transport failures.
func newNetworkError(err error) error {
	return &core.ServiceError{
		Service: serviceName,
		Message: err.Error(),
		Err:     core.ErrNetwork,
	}
}

// newDecodeError wraps decode/parsing failures.
func newDecodeError(err error) error {
	return &core.ServiceError{
		Service: serviceName,
		Message: err.Error(),
		Err:     core.ErrDecode,
	}
}
