// Package script evaluates JavaScript assertions against call results.
package script

import (
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/rpcprobe/rpcprobe/internal/logger"
)

// DefaultBudget bounds how long a single assertion may run.
const DefaultBudget = time.Second

// Evaluator runs sandboxed boolean expressions.
type Evaluator struct {
	Budget time.Duration
}

// NewEvaluator returns an evaluator with the default budget.
func NewEvaluator() *Evaluator {
	return &Evaluator{Budget: DefaultBudget}
}

// Evaluate runs expr with bindings as globals. expr is either an expression
// or a function body using return. The result must be a boolean.
func (e *Evaluator) Evaluate(expr string, bindings map[string]interface{}) (bool, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	for k, v := range bindings {
		if err := vm.Set(k, v); err != nil {
			return false, fmt.Errorf("bind %s: %w", k, err)
		}
	}
	vm.Set("log", func(msg interface{}) {
		logger.Infof("[script] %v", msg)
	})

	budget := e.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	timer := time.AfterFunc(budget, func() {
		vm.Interrupt("script exceeded " + budget.String())
	})
	defer timer.Stop()

	prog, err := compile(expr)
	if err != nil {
		return false, fmt.Errorf("script: %w", err)
	}
	value, err := vm.RunProgram(prog)
	if err != nil {
		return false, fmt.Errorf("script: %w", err)
	}

	b, ok := value.Export().(bool)
	if !ok {
		return false, fmt.Errorf("script returned %v, want a boolean", value.Export())
	}
	return b, nil
}

// compile tries expr as a single expression first and falls back to a
// function body, so statements using return still work.
func compile(expr string) (*goja.Program, error) {
	body := strings.TrimSuffix(strings.TrimSpace(expr), ";")
	if prog, err := goja.Compile("assertion", "(function() { return ("+body+"); })()", false); err == nil {
		return prog, nil
	}
	// Wrap script in an IIFE to support 'return'
	return goja.Compile("assertion", "(function() { "+expr+" })()", false)
}
