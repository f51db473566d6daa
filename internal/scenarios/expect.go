package scenarios

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/rpcprobe/rpcprobe/internal/jsonrpc"
	"github.com/rpcprobe/rpcprobe/internal/protocol"
	"github.com/rpcprobe/rpcprobe/internal/script"
)

// Expectation keys.
const (
	ExpectError             = "error"
	ExpectID                = "id"
	ExpectResult            = "result"
	ExpectResultContains    = "result_contains"
	ExpectResultNotContains = "result_not_contains"
	ExpectMinDuration       = "min_duration"
	ExpectMaxDuration       = "max_duration"
	ExpectSchema            = "schema"
	ExpectScript            = "script"
)

// SchemaJSONRPC selects the JSON-RPC 2.0 response schema.
const SchemaJSONRPC = "jsonrpc"

// ExpectationError reports a response that did not match.
type ExpectationError struct {
	Step    string
	Key     string
	Message string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("step %q: expectation %s failed: %s", e.Step, e.Key, e.Message)
}

func checkExpectations(step Step, res *protocol.Result, eval *script.Evaluator) error {
	keys := make([]string, 0, len(step.Expect))
	for k := range step.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if msg := checkExpectation(key, step.Expect[key], res, eval); msg != "" {
			return &ExpectationError{Step: step.Name, Key: key, Message: msg}
		}
	}
	return nil
}

func checkExpectation(key string, expected interface{}, res *protocol.Result, eval *script.Evaluator) string {
	switch key {
	case ExpectMinDuration, ExpectMaxDuration:
		d, err := time.ParseDuration(fmt.Sprint(expected))
		if err != nil {
			return err.Error()
		}
		if key == ExpectMinDuration && res.Elapsed < d {
			return fmt.Sprintf("answered after %s, expected at least %s", res.Elapsed.Round(time.Millisecond), d)
		}
		if key == ExpectMaxDuration && res.Elapsed > d {
			return fmt.Sprintf("answered after %s, expected at most %s", res.Elapsed.Round(time.Millisecond), d)
		}
		return ""
	case ExpectSchema:
		if err := jsonrpc.ValidateResponse(res.Body); err != nil {
			return err.Error()
		}
		return ""
	case ExpectScript:
		ok, err := eval.Evaluate(fmt.Sprint(expected), scriptBindings(res))
		if err != nil {
			return err.Error()
		}
		if !ok {
			return fmt.Sprintf("%s evaluated to false", expected)
		}
		return ""
	}

	resp := res.Response
	if resp == nil {
		return "response is not a JSON-RPC object"
	}

	switch key {
	case ExpectError:
		if expected == nil {
			if resp.Error != nil {
				return fmt.Sprintf("expected no error, got: %d %s", resp.Error.Code, resp.Error.Message)
			}
			return ""
		}
		if resp.Error == nil {
			return fmt.Sprintf("expected error %v, got none", expected)
		}
		if code, ok := expected.(int); ok && resp.Error.Code != code {
			return fmt.Sprintf("expected error %d, got %d %s", code, resp.Error.Code, resp.Error.Message)
		}
	case ExpectID:
		if !resp.IDEquals(expected) {
			return fmt.Sprintf("expected id %v, got %v", expected, resp.ID)
		}
	case ExpectResult:
		got, err := decodeGeneric(resp.Result)
		if err != nil {
			return err.Error()
		}
		want, err := normalize(expected)
		if err != nil {
			return err.Error()
		}
		if !reflect.DeepEqual(got, want) {
			return fmt.Sprintf("expected result %s, got %s", mustJSON(want), string(resp.Result))
		}
	case ExpectResultContains:
		if !strings.Contains(string(resp.Result), fmt.Sprint(expected)) {
			return fmt.Sprintf("expected result to contain '%v', but it didn't. Result: %s", expected, string(resp.Result))
		}
	case ExpectResultNotContains:
		if strings.Contains(string(resp.Result), fmt.Sprint(expected)) {
			return fmt.Sprintf("expected result NOT to contain '%v', but it did. Result: %s", expected, string(resp.Result))
		}
	default:
		return "unknown expectation"
	}
	return ""
}

func scriptBindings(res *protocol.Result) map[string]interface{} {
	bindings := map[string]interface{}{
		"response":   nil,
		"result":     nil,
		"error":      nil,
		"elapsed_ms": res.Elapsed.Milliseconds(),
	}
	if doc, err := decodeGeneric(res.Body); err == nil {
		bindings["response"] = doc
	}
	if res.Response != nil {
		if v, err := decodeGeneric(res.Response.Result); err == nil {
			bindings["result"] = v
		}
		if res.Response.Error != nil {
			if v, err := normalize(res.Response.Error); err == nil {
				bindings["error"] = v
			}
		}
	}
	return bindings
}

func decodeGeneric(raw []byte) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return v, nil
}

// normalize round-trips v through JSON so YAML values compare equal to
// decoded response values.
func normalize(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("expected value: %w", err)
	}
	return decodeGeneric(data)
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
