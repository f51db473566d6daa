package commands

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpcprobe/rpcprobe/internal/auth"
	"github.com/rpcprobe/rpcprobe/internal/cli/errors"
	"github.com/rpcprobe/rpcprobe/internal/cli/inference"
	"github.com/rpcprobe/rpcprobe/internal/cli/output"
	"github.com/rpcprobe/rpcprobe/internal/config"
	"github.com/rpcprobe/rpcprobe/internal/logger"
	"github.com/rpcprobe/rpcprobe/internal/metrics"
	"github.com/rpcprobe/rpcprobe/internal/protocol"
	"github.com/rpcprobe/rpcprobe/internal/scenarios"
)

type options struct {
	cfgFile     string
	envFile     string
	endpoint    string
	timeout     string
	idMode      string
	logLevel    string
	metricsFile string
	jsonOutput  bool
	rawOutput   bool
	noColor     bool
	strict      bool
	summary     bool
}

// app is what every command needs once flags and config are resolved.
type app struct {
	settings  config.Settings
	client    *protocol.Client
	formatter *output.Formatter
	opts      *options
}

// reportedError has already been printed to the user.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func Execute() error {
	args := os.Args[1:]
	if inferredCmd, rest := inference.InferCommand(args); inferredCmd != "" {
		args = append([]string{inferredCmd}, rest...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	var reported reportedError
	if err != nil && !stderrors.As(err, &reported) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// NewRootCmd builds the command tree. Without a subcommand it runs the
// built-in ping/wait scenario.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "rpcprobe",
		Short: "rpcprobe - send JSON-RPC 2.0 calls and print the answers",
		Long: `rpcprobe exercises a JSON-RPC 2.0 server over HTTP POST.
Without arguments it sends "ping" and then "wait [4]" to http://127.0.0.1:8080/
and prints each response. Scenario files describe longer call sequences.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			return a.runScenarios(cmd, []*scenarios.Scenario{scenarios.Default()})
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/rpcprobe/config.toml)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading RPCPROBE_* variables")
	flags.StringVar(&opts.endpoint, "endpoint", "", "JSON-RPC endpoint (default "+config.DefaultEndpoint+")")
	flags.StringVar(&opts.timeout, "timeout", "", "per-call timeout, e.g. 30s (default none)")
	flags.StringVar(&opts.idMode, "id-mode", "", "request ids: fixed, sequence or uuid (default fixed)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
	flags.BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")
	flags.BoolVar(&opts.rawOutput, "raw", false, "raw output (no formatting)")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&opts.strict, "strict", false, "validate every response against the JSON-RPC 2.0 schema")
	flags.BoolVar(&opts.summary, "summary", false, "print a table of step outcomes to stderr")
	rootCmd.MarkFlagsMutuallyExclusive("json", "raw")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newCallCmd(opts),
		newPingCmd(opts),
		newWaitCmd(opts),
		newValidateCmd(opts),
		newAuthCmd(),
	)
	return rootCmd
}

func (o *options) format() output.OutputFormat {
	switch {
	case o.jsonOutput:
		return output.FormatJSON
	case o.rawOutput:
		return output.FormatRaw
	}
	return output.FormatText
}

func resolveSettings(cmd *cobra.Command, opts *options) (config.Settings, error) {
	path := opts.cfgFile
	if path == "" {
		path = config.DefaultPath()
	} else if _, err := os.Stat(path); err != nil {
		return config.Settings{}, fmt.Errorf("config file: %w", err)
	}

	settings, err := config.NewStore(path).Load()
	if err != nil {
		return config.Settings{}, err
	}
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return config.Settings{}, err
	}
	if err := config.ApplyEnv(&settings, nil); err != nil {
		return config.Settings{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		settings.Endpoint = opts.endpoint
	}
	if flags.Changed("timeout") {
		settings.Timeout = opts.timeout
	}
	if flags.Changed("id-mode") {
		settings.IDMode = opts.idMode
	}
	if flags.Changed("log-level") {
		settings.LogLevel = opts.logLevel
	}
	if flags.Changed("metrics-file") {
		settings.MetricsFile = opts.metricsFile
	}
	if opts.noColor {
		settings.Color = false
	}
	if opts.strict {
		settings.Strict = true
	}
	return settings, settings.Validate()
}

func newApp(cmd *cobra.Command, opts *options) (*app, error) {
	formatter := output.NewFormatter(opts.format(), !opts.noColor, cmd.OutOrStdout())
	fail := func(err error) (*app, error) {
		classified := errors.Config(err)
		fmt.Fprintln(cmd.ErrOrStderr(), formatter.FormatError(classified))
		return nil, reportedError{classified}
	}

	settings, err := resolveSettings(cmd, opts)
	if err != nil {
		return fail(err)
	}
	formatter = output.NewFormatter(opts.format(), settings.Color, cmd.OutOrStdout())

	logger.SetConsole(cmd.ErrOrStderr())
	if err := logger.SetLevel(settings.LogLevel); err != nil {
		return fail(err)
	}
	if err := logger.Init(settings.LogFile); err != nil {
		return fail(err)
	}
	logger.ClearLogs()

	timeout, _ := settings.TimeoutDuration()
	clientOpts := []protocol.Option{
		protocol.WithTimeout(timeout),
		protocol.WithIDMode(settings.IDMode),
		protocol.WithHeaders(settings.Headers),
	}
	if settings.Auth.Enabled() {
		ts, err := auth.TokenSource(cmd.Context(), settings.Auth, secretStore())
		if err != nil {
			return fail(err)
		}
		clientOpts = append(clientOpts, protocol.WithTokenSource(ts))
	}

	return &app{
		settings:  settings,
		client:    protocol.NewClient(settings.Endpoint, clientOpts...),
		formatter: formatter,
		opts:      opts,
	}, nil
}

// runScenarios runs each scenario in order and stops at the first failure,
// which is printed as a classified error.
func (a *app) runScenarios(cmd *cobra.Command, list []*scenarios.Scenario) error {
	defer logger.Close()
	if a.settings.MetricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(a.settings.MetricsFile); err != nil {
				logger.Errorf("%v", err)
			}
		}()
	}

	if a.opts.summary {
		defer func() { a.formatter.WriteLogSummary(cmd.ErrOrStderr(), logger.GetLogs()) }()
	}

	runner := &scenarios.ScenarioRunner{
		Client:  a.client,
		Printer: a.formatter,
		Strict:  a.settings.Strict,
	}
	for _, s := range list {
		report, err := runner.Run(cmd.Context(), s)
		if a.opts.summary {
			a.formatter.WriteSummary(cmd.ErrOrStderr(), report)
		}
		if err != nil {
			classified := errors.Classify(err)
			fmt.Fprintln(cmd.ErrOrStderr(), a.formatter.FormatError(classified))
			return reportedError{err}
		}
	}
	return nil
}
