package errors

import (
	"context"
	stderrors "errors"
	"net"
	"strings"

	"github.com/rpcprobe/rpcprobe/internal/protocol"
	"github.com/rpcprobe/rpcprobe/internal/scenarios"
)

type ErrorKind string

const (
	ErrorKindOffline     ErrorKind = "offline"
	ErrorKindTimeout     ErrorKind = "timeout"
	ErrorKindHTTP        ErrorKind = "http-status"
	ErrorKindProtocol    ErrorKind = "protocol"
	ErrorKindExpectation ErrorKind = "expectation"
	ErrorKindAuth        ErrorKind = "auth"
	ErrorKindConfig      ErrorKind = "config"
	ErrorKindOther       ErrorKind = "other"
)

type ClassifiedError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Hint    string    `json:"hint,omitempty"` // User-friendly suggestion
	Raw     error     `json:"-"`
}

func (e ClassifiedError) Error() string {
	return e.Message
}

func (e ClassifiedError) Unwrap() error {
	return e.Raw
}

// Config marks err as a configuration problem.
func Config(err error) ClassifiedError {
	return ClassifiedError{
		Kind:    ErrorKindConfig,
		Message: err.Error(),
		Hint:    "Check the config file, RPCPROBE_* variables and flags.",
		Raw:     err,
	}
}

func Classify(err error) ClassifiedError {
	if err == nil {
		return ClassifiedError{}
	}

	var classified ClassifiedError
	if stderrors.As(err, &classified) {
		return classified
	}

	var (
		statusErr *protocol.StatusError
		decodeErr *protocol.DecodeError
		expectErr *scenarios.ExpectationError
		netErr    net.Error
	)
	msg := strings.ToLower(err.Error())

	switch {
	case stderrors.As(err, &expectErr):
		return ClassifiedError{
			Kind:    ErrorKindExpectation,
			Message: err.Error(),
			Hint:    "The server answered, but not as the scenario expects.",
			Raw:     err,
		}
	case stderrors.As(err, &statusErr) && (statusErr.StatusCode == 401 || statusErr.StatusCode == 403):
		return ClassifiedError{
			Kind:    ErrorKindAuth,
			Message: err.Error(),
			Hint:    "Check the token or the [auth] section of the config.",
			Raw:     err,
		}
	case stderrors.As(err, &statusErr):
		return ClassifiedError{
			Kind:    ErrorKindHTTP,
			Message: err.Error(),
			Hint:    "The endpoint answered with a non-2xx status. Is it a JSON-RPC endpoint accepting POST?",
			Raw:     err,
		}
	case stderrors.As(err, &decodeErr):
		return ClassifiedError{
			Kind:    ErrorKindProtocol,
			Message: err.Error(),
			Hint:    "The endpoint did not answer with JSON.",
			Raw:     err,
		}
	case stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) || strings.Contains(msg, "timeout"):
		return ClassifiedError{
			Kind:    ErrorKindTimeout,
			Message: err.Error(),
			Hint:    "The call took longer than allowed. Raise --timeout or the scenario timeout.",
			Raw:     err,
		}
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") || strings.Contains(msg, "econnrefused"):
		return ClassifiedError{
			Kind:    ErrorKindOffline,
			Message: err.Error(),
			Hint:    "Is the JSON-RPC server running? The default endpoint is http://127.0.0.1:8080/",
			Raw:     err,
		}
	case strings.Contains(msg, "oauth2") || strings.Contains(msg, "obtain token") || strings.Contains(msg, "auth:"):
		return ClassifiedError{
			Kind:    ErrorKindAuth,
			Message: err.Error(),
			Hint:    "Check the token or the [auth] section of the config.",
			Raw:     err,
		}
	default:
		return ClassifiedError{
			Kind:    ErrorKindOther,
			Message: err.Error(),
			Hint:    "An unexpected error occurred.",
			Raw:     err,
		}
	}
}
