package scenarios

import (
	"context"
	"fmt"
	"time"

	"github.com/rpcprobe/rpcprobe/internal/jsonrpc"
	"github.com/rpcprobe/rpcprobe/internal/logger"
	"github.com/rpcprobe/rpcprobe/internal/metrics"
	"github.com/rpcprobe/rpcprobe/internal/protocol"
	"github.com/rpcprobe/rpcprobe/internal/script"
)

// Step outcomes.
const (
	StatusOK       = "ok"
	StatusRPCError = "rpc_error"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusSlept    = "slept"
)

// Printer renders step labels and responses as they happen.
type Printer interface {
	PrintLabel(label string)
	PrintResult(label string, res *protocol.Result)
}

// StepReport is the outcome of a single step.
type StepReport struct {
	Name    string        `json:"name"`
	Method  string        `json:"method,omitempty"`
	ID      interface{}   `json:"id,omitempty"`
	Status  string        `json:"status"`
	Elapsed time.Duration `json:"elapsed"`
	Error   string        `json:"error,omitempty"`
}

// Report is the outcome of a scenario run.
type Report struct {
	Scenario string       `json:"scenario"`
	Passed   bool         `json:"passed"`
	Steps    []StepReport `json:"steps"`
}

// ScenarioRunner executes test scenarios.
type ScenarioRunner struct {
	Client  *protocol.Client
	Printer Printer
	// Strict validates every response against the JSON-RPC 2.0 schema.
	Strict    bool
	Evaluator *script.Evaluator
}

// Run executes the steps of s in order and stops at the first failure.
// The returned report covers every step, including skipped ones.
func (r *ScenarioRunner) Run(ctx context.Context, s *Scenario) (*Report, error) {
	if err := Validate(s).Err(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if s.Timeout != "" {
		d, _ := time.ParseDuration(s.Timeout)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	client := r.Client
	if s.Endpoint != "" && s.Endpoint != client.Endpoint {
		client = client.WithEndpoint(s.Endpoint)
	}
	eval := r.Evaluator
	if eval == nil {
		eval = script.NewEvaluator()
	}

	logger.Infof("running scenario %s against %s", s.Name, client.Endpoint)
	report := &Report{Scenario: s.Name, Passed: true}

	for i, step := range s.Steps {
		sr, err := r.runStep(ctx, client, eval, step)
		report.Steps = append(report.Steps, sr)
		if err != nil {
			report.Passed = false
			for _, rest := range s.Steps[i+1:] {
				report.Steps = append(report.Steps, StepReport{Name: rest.Name, Method: rest.Method, Status: StatusSkipped})
			}
			metrics.ObserveScenarioFailure()
			return report, err
		}
	}
	return report, nil
}

func (r *ScenarioRunner) runStep(ctx context.Context, client *protocol.Client, eval *script.Evaluator, step Step) (StepReport, error) {
	sr := StepReport{Name: step.Name, Method: step.Method}

	if step.Sleep != "" {
		d, _ := time.ParseDuration(step.Sleep)
		logger.Infof("step %q: sleeping %s", step.Name, d)
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			sr.Status = StatusFailed
			sr.Error = ctx.Err().Error()
			return sr, fmt.Errorf("step %q: %w", step.Name, ctx.Err())
		case <-timer.C:
		}
		sr.Status = StatusSlept
		sr.Elapsed = d
		return sr, nil
	}

	id := step.ID
	if id == nil {
		id = client.NextID()
	}
	sr.ID = id

	if r.Printer != nil {
		r.Printer.PrintLabel(step.Name)
	}

	res, err := client.Send(ctx, jsonrpc.NewRequest(step.Method, id, step.Params...))
	if err != nil {
		sr.Status = StatusFailed
		sr.Error = err.Error()
		metrics.ObserveCall(step.Method, metrics.OutcomeFailed, 0)
		logger.Errorf("step %q: %v", step.Name, err)
		return sr, fmt.Errorf("step %q: %w", step.Name, err)
	}
	sr.Elapsed = res.Elapsed

	if r.Printer != nil {
		r.Printer.PrintResult(step.Name, res)
	}

	outcome := metrics.OutcomeOK
	sr.Status = StatusOK
	if res.Response.HasError() {
		outcome = metrics.OutcomeRPCError
		sr.Status = StatusRPCError
	}
	metrics.ObserveCall(step.Method, outcome, res.Elapsed)

	if r.Strict {
		if err := jsonrpc.ValidateResponse(res.Body); err != nil {
			sr.Status = StatusFailed
			sr.Error = err.Error()
			return sr, &ExpectationError{Step: step.Name, Key: ExpectSchema, Message: err.Error()}
		}
	}

	if err := checkExpectations(step, res, eval); err != nil {
		sr.Status = StatusFailed
		sr.Error = err.Error()
		logger.Warnf("%v", err)
		return sr, err
	}
	return sr, nil
}
