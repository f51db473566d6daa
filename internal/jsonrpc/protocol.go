// Package jsonrpc holds the JSON-RPC 2.0 envelope types shared by the client,
// the scenario runner and the test server.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Version is the only protocol version accepted on the wire.
const Version = "2.0"

// Standard JSON-RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

var stdMessages = map[int]string{
	ParseError:     "Parse error",
	InvalidRequest: "Invalid Request",
	MethodNotFound: "Method not found",
	InvalidParams:  "Invalid params",
	InternalError:  "Internal error",
}

// Request represents a standard JSON-RPC 2.0 request.
// Params is always serialized, as [] when there are none.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      interface{}   `json:"id"`
}

// NewRequest builds a request envelope for method with positional params.
func NewRequest(method string, id interface{}, params ...interface{}) Request {
	if params == nil {
		params = []interface{}{}
	}
	return Request{
		JSONRPC: Version,
		Method:  method,
		Params:  params,
		ID:      id,
	}
}

// Response represents a standard JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// HasError reports whether the server answered with an error object.
func (r *Response) HasError() bool {
	return r != nil && r.Error != nil
}

// IDEquals compares the response id with want, treating JSON numbers and Go
// integers as equal when they hold the same value.
func (r *Response) IDEquals(want interface{}) bool {
	if r == nil {
		return false
	}
	return normalizeID(r.ID) == normalizeID(want)
}

func normalizeID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return "null"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case json.Number:
		return v.String()
	case string:
		return "s:" + v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Error represents a standard JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("jsonrpc error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// StdError returns the predefined error for code. ok is false for codes
// outside the predefined set.
func StdError(code int) (e *Error, ok bool) {
	msg, ok := stdMessages[code]
	if !ok {
		return nil, false
	}
	return &Error{Code: code, Message: msg}, true
}
