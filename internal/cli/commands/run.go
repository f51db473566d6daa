package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpcprobe/rpcprobe/internal/scenarios"
)

type invalidFlagError struct {
	flag   string
	value  string
	reason string
}

func (e *invalidFlagError) Error() string {
	return fmt.Sprintf("invalid --%s %q: %s", e.flag, e.value, e.reason)
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run [scenario.yaml...]",
		Short: "Run scenario files in order (the built-in ping/wait scenario when none are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := []*scenarios.Scenario{scenarios.Default()}
			if len(args) > 0 {
				list = list[:0]
				for _, path := range args {
					s, err := scenarios.LoadScenario(path)
					if err != nil {
						return err
					}
					list = append(list, s)
				}
			}

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			return a.runScenarios(cmd, list)
		},
	}
}
