package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rpcprobe/rpcprobe/internal/scenarios"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml...>",
		Short: "Check scenario files without sending any request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			all := make(map[string]*scenarios.ValidationResult, len(args))

			for _, path := range args {
				result, err := validateFile(path)
				if err != nil {
					result = &scenarios.ValidationResult{Errors: []scenarios.ValidationError{{Field: "file", Message: err.Error()}}}
				}
				all[path] = result
				if !result.Valid {
					failed++
				}
				if opts.jsonOutput {
					continue
				}
				if result.Valid {
					fmt.Fprintf(out, "%s %s\n", mark(!opts.noColor, true), path)
					continue
				}
				fmt.Fprintf(out, "%s %s\n", mark(!opts.noColor, false), path)
				for _, e := range result.Errors {
					fmt.Fprintf(out, "    %s\n", e.Error())
				}
			}

			if opts.jsonOutput {
				data, _ := json.MarshalIndent(all, "", "  ")
				fmt.Fprintln(out, string(data))
			}
			if failed > 0 {
				return reportedError{fmt.Errorf("%d of %d scenario files are invalid", failed, len(args))}
			}
			return nil
		},
	}
}

func validateFile(path string) (*scenarios.ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s scenarios.Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return scenarios.Validate(&s), nil
}

func mark(useColor, ok bool) string {
	switch {
	case ok && useColor:
		return color.GreenString("ok  ")
	case ok:
		return "ok  "
	case useColor:
		return color.RedString("FAIL")
	default:
		return "FAIL"
	}
}
