// Package rpctest provides a conforming JSON-RPC 2.0 server for tests.
package rpctest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rpcprobe/rpcprobe/internal/jsonrpc"
)

// Received is a request as seen by the server.
type Received struct {
	Method string
	Body   []byte
	Header http.Header
	At     time.Time
}

// Server answers ping, wait and peerCount over HTTP POST.
type Server struct {
	// Unit is the length of one "second" for the wait method.
	Unit time.Duration
	// Status, when non-zero, is written instead of 200 with a plain text body.
	Status int

	mu       sync.Mutex
	received []Received
	http     *httptest.Server
}

// NewServer starts a server with a one second wait unit.
func NewServer() *Server {
	s := &Server{Unit: time.Second}
	s.http = httptest.NewServer(s)
	return s
}

// URL returns the endpoint, with a trailing slash like the default endpoint.
func (s *Server) URL() string {
	return s.http.URL + "/"
}

// Close shuts the server down.
func (s *Server) Close() {
	s.http.Close()
}

// Received returns a copy of every request handled so far.
func (s *Server) Received() []Received {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]Received, len(s.received))
	copy(res, s.received)
	return res
}

// SetUnit changes the wait unit.
func (s *Server) SetUnit(unit time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Unit = unit
}

// SetStatus makes the server fail every request with status.
func (s *Server) SetStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req, rpcErr := Parse(body)

	s.mu.Lock()
	rec := Received{Body: body, Header: r.Header.Clone(), At: time.Now()}
	if req != nil {
		rec.Method = req.Method
	}
	s.received = append(s.received, rec)
	status := s.Status
	unit := s.Unit
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	resp := jsonrpc.Response{JSONRPC: jsonrpc.Version}
	if rpcErr != nil {
		resp.Error = rpcErr
		writeJSON(w, resp)
		return
	}
	resp.ID = req.ID

	switch req.Method {
	case "ping":
		resp.Result = json.RawMessage(`"pong"`)
	case "wait":
		n, ok := waitSeconds(req.Params)
		if !ok {
			resp.Error, _ = jsonrpc.StdError(jsonrpc.InvalidParams)
			break
		}
		select {
		case <-time.After(time.Duration(n * float64(unit))):
		case <-r.Context().Done():
			return
		}
		resp.Result = json.RawMessage(`"pong"`)
	case "peerCount":
		resp.Result = json.RawMessage(`42`)
	default:
		resp.Error, _ = jsonrpc.StdError(jsonrpc.MethodNotFound)
	}
	writeJSON(w, resp)
}

func waitSeconds(params []interface{}) (float64, bool) {
	if len(params) != 1 {
		return 0, false
	}
	n, ok := params[0].(float64)
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// Parse decodes a request body the way the reference server does. The
// returned error is the JSON-RPC error to send back with a null id.
func Parse(data []byte) (*jsonrpc.Request, *jsonrpc.Error) {
	if !utf8.Valid(data) {
		e, _ := jsonrpc.StdError(jsonrpc.ParseError)
		e.Data = "invalid utf-8 sequence"
		return nil, e
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		e, _ := jsonrpc.StdError(jsonrpc.ParseError)
		e.Data = err.Error()
		return nil, e
	}

	obj, ok := doc.(map[string]interface{})
	if !ok {
		e, _ := jsonrpc.StdError(jsonrpc.InvalidRequest)
		return nil, e
	}
	if v, _ := obj["jsonrpc"].(string); v != jsonrpc.Version {
		e, _ := jsonrpc.StdError(jsonrpc.InvalidRequest)
		return nil, e
	}
	id, ok := obj["id"]
	if !ok {
		e, _ := jsonrpc.StdError(jsonrpc.InvalidRequest)
		return nil, e
	}
	method, ok := obj["method"].(string)
	if !ok {
		e, _ := jsonrpc.StdError(jsonrpc.MethodNotFound)
		return nil, e
	}
	params, ok := obj["params"].([]interface{})
	if !ok {
		e, _ := jsonrpc.StdError(jsonrpc.InvalidParams)
		return nil, e
	}

	req := jsonrpc.NewRequest(method, id, params...)
	return &req, nil
}
