package commands

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rpcprobe/rpcprobe/internal/scenarios"
)

func newCallCmd(opts *options) *cobra.Command {
	var (
		label  string
		expect []string
	)

	cmd := &cobra.Command{
		Use:   "call <method> [param...]",
		Short: "Call a single JSON-RPC method",
		Long: `Call a single JSON-RPC method with positional params.
Each param is parsed as a JSON literal (4, true, "x", {"a":1}); anything
that is not valid JSON is sent as a string.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			step := scenarios.Step{
				Name:   label,
				Method: args[0],
				Params: ParseParams(args[1:]),
			}
			if step.Name == "" {
				step.Name = args[0]
			}
			if len(expect) > 0 {
				step.Expect, err = parseExpectations(expect)
				if err != nil {
					return err
				}
			}
			s := &scenarios.Scenario{Name: "call " + args[0], Steps: []scenarios.Step{step}}
			return a.runScenarios(cmd, []*scenarios.Scenario{s})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "label printed before the response (default is the method name)")
	cmd.Flags().StringArrayVar(&expect, "expect", nil, "expectation as key=value, e.g. result=pong or max_duration=1s (repeatable)")
	return cmd
}

// ParseParams turns command line words into positional params.
func ParseParams(args []string) []interface{} {
	params := make([]interface{}, 0, len(args))
	for _, arg := range args {
		var v interface{}
		if err := json.Unmarshal([]byte(arg), &v); err != nil {
			v = arg
		}
		params = append(params, v)
	}
	return params
}

func parseExpectations(pairs []string) (map[string]interface{}, error) {
	expect := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, &invalidFlagError{flag: "expect", value: pair, reason: "want key=value"}
		}
		key, raw := kv[0], kv[1]
		switch key {
		case scenarios.ExpectError, scenarios.ExpectID, scenarios.ExpectResult:
			var v interface{}
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				v = raw
			}
			// error codes and ids are integers in scenario files
			if f, ok := v.(float64); ok && f == float64(int(f)) {
				v = int(f)
			}
			expect[key] = v
		default:
			expect[key] = raw
		}
	}
	return expect, nil
}
