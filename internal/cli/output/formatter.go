package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/rpcprobe/rpcprobe/internal/cli/errors"
	"github.com/rpcprobe/rpcprobe/internal/logger"
	"github.com/rpcprobe/rpcprobe/internal/protocol"
	"github.com/rpcprobe/rpcprobe/internal/scenarios"
)

type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatRaw  OutputFormat = "raw"
)

// Formatter prints labels and responses to out. It implements
// scenarios.Printer.
type Formatter struct {
	format OutputFormat
	color  bool
	out    io.Writer
}

func NewFormatter(format OutputFormat, useColor bool, out io.Writer) *Formatter {
	return &Formatter{
		format: format,
		color:  useColor,
		out:    out,
	}
}

var _ scenarios.Printer = (*Formatter)(nil)

func (f *Formatter) PrintLabel(label string) {
	if f.format == FormatJSON {
		return
	}
	if f.color {
		fmt.Fprintln(f.out, color.New(color.FgCyan).Sprint(label))
		return
	}
	fmt.Fprintln(f.out, label)
}

func (f *Formatter) PrintResult(label string, res *protocol.Result) {
	fmt.Fprintln(f.out, f.FormatResult(label, res))
}

func (f *Formatter) FormatResult(label string, res *protocol.Result) string {
	switch f.format {
	case FormatJSON:
		s, err := NewStepRecord(label, res).JSON()
		if err != nil {
			return string(res.Body)
		}
		return s
	case FormatRaw:
		return string(bytes.TrimRight(res.Body, "\n"))
	}

	// Default text format
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(res.Body), "", "  "); err != nil {
		return string(res.Body)
	}
	if f.color && res.Response.HasError() {
		return color.RedString(buf.String())
	}
	return buf.String()
}

func (f *Formatter) FormatError(err errors.ClassifiedError) string {
	if f.format == FormatJSON {
		data, _ := json.Marshal(err)
		return string(data)
	}

	var msg string
	if f.color {
		msg = color.RedString("Error [%s]: %s", err.Kind, err.Message)
		if err.Hint != "" {
			msg += "\n" + color.YellowString("Hint: %s", err.Hint)
		}
	} else {
		msg = fmt.Sprintf("Error [%s]: %s", err.Kind, err.Message)
		if err.Hint != "" {
			msg += "\nHint: " + err.Hint
		}
	}
	return msg
}

// WriteSummary renders a table of step outcomes.
func (f *Formatter) WriteSummary(w io.Writer, report *scenarios.Report) {
	if report == nil {
		return
	}
	if f.format == FormatJSON {
		data, _ := json.Marshal(report)
		fmt.Fprintln(w, string(data))
		return
	}

	fmt.Fprintf(w, "Scenario: %s\n", report.Scenario)
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Step", "Method", "ID", "Status", "Elapsed"}),
	)
	for _, s := range report.Steps {
		id := ""
		if s.ID != nil {
			id = fmt.Sprint(s.ID)
		}
		table.Append([]string{s.Name, s.Method, id, s.Status, s.Elapsed.Round(time.Millisecond).String()})
	}
	table.Render()
}

// WriteLogSummary lists the warnings and errors logged during the run.
func (f *Formatter) WriteLogSummary(w io.Writer, entries []logger.LogEntry) {
	var shown []logger.LogEntry
	for _, e := range entries {
		if e.AtLeast(logger.LevelWarn) {
			shown = append(shown, e)
		}
	}
	if len(shown) == 0 {
		return
	}
	if f.format == FormatJSON {
		data, _ := json.Marshal(map[string]interface{}{"logs": shown})
		fmt.Fprintln(w, string(data))
		return
	}

	fmt.Fprintf(w, "Log entries (%d):\n", len(shown))
	for _, e := range shown {
		line := fmt.Sprintf("  %-5s %s", e.Level, e.Message)
		if f.color && e.Level == logger.LevelError {
			line = color.RedString("%s", line)
		} else if f.color {
			line = color.YellowString("%s", line)
		}
		fmt.Fprintln(w, line)
	}
}
