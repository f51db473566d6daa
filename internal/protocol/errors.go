package protocol

import (
	"fmt"
	"net/http"
	"strings"
)

// StatusError is returned for non-2xx replies.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("unexpected http status %d %s from %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Endpoint, body)
}

// DecodeError is returned when the reply body is not JSON.
type DecodeError struct {
	Endpoint string
	Body     []byte
}

func (e *DecodeError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("malformed json response from %s: %q", e.Endpoint, body)
}
