package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rpcprobe/rpcprobe/internal/scenarios"
)

func newPingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Send a single ping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			s := &scenarios.Scenario{Name: "ping", Steps: scenarios.Default().Steps[:1]}
			return a.runScenarios(cmd, []*scenarios.Scenario{s})
		},
	}
}

func newWaitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "wait <seconds>",
		Short: "Ask the server to answer after the given number of seconds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseFloat(args[0], 64)
			if err != nil || seconds < 0 {
				return &invalidFlagError{flag: "seconds", value: args[0], reason: "want a non-negative number"}
			}
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			s := &scenarios.Scenario{
				Name: "wait",
				Steps: []scenarios.Step{{
					Name:   fmt.Sprintf("ping: pong after %s secs", args[0]),
					Method: "wait",
					Params: []interface{}{seconds},
				}},
			}
			return a.runScenarios(cmd, []*scenarios.Scenario{s})
		},
	}
}
