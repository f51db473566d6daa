package script

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	bindings := map[string]interface{}{
		"result":     "pong",
		"elapsed_ms": int64(4012),
		"response":   map[string]interface{}{"id": 1, "result": "pong", "returned": true, "tag": "returnval"},
		"error":      nil,
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"equality", `result === "pong"`, true},
		{"inequality", `result === "ping"`, false},
		{"nested", `response.id == 1 && error === null`, true},
		{"duration", `elapsed_ms >= 4000`, true},
		{"function body", `if (elapsed_ms > 10000) { return false; } return true;`, true},
		{"trailing semicolon", `result === "pong";`, true},
		{"return in a field name", `response.returned === true`, true},
		{"return in a string", `response.tag === "returnval"`, true},
		{"return in an identifier", `typeof returnCode === "undefined"`, true},
	}
	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.expr, bindings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	e := NewEvaluator()

	_, err := e.Evaluate(`result.`, nil)
	assert.Error(t, err)

	_, err = e.Evaluate(`1 + 1`, nil)
	assert.ErrorContains(t, err, "want a boolean")

	_, err = e.Evaluate(`missing.field`, nil)
	assert.Error(t, err)
}

func TestEvaluate_Budget(t *testing.T) {
	e := &Evaluator{Budget: 20 * time.Millisecond}
	_, err := e.Evaluate(`while (true) {} return true;`, nil)
	assert.ErrorContains(t, err, "exceeded")
}
