package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mockdev/internal/scenario"
	"github.com/roach88/mockdev/internal/session"
	"github.com/roach88/mockdev/internal/trace"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Output   string
	Database string
}

// RecordResult is the JSON payload of the record command.
type RecordResult struct {
	Scenario string        `json:"scenario"`
	Device   string        `json:"device"`
	Nodes    int           `json:"nodes"`
	Stats    session.Stats `json:"stats"`
	Output   string        `json:"output,omitempty"`
	TraceID  string        `json:"trace_id,omitempty"`
	Trace    string        `json:"trace,omitempty"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <scenario.yaml>",
		Short: "Record a scenario into a trace",
		Long: `Feed the calls of a YAML scenario through a recorder and emit the
deduplicated trace.

The trace is printed to stdout unless --output is given. With --db it is
also stored in a trace library under the scenario's device.

Examples:
  mockdev record testdata/readfile.yaml
  mockdev record testdata/readfile.yaml -o readfile.ioctl
  mockdev record testdata/readfile.yaml --db traces.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the trace to this file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "also store the trace in this library database")

	return cmd
}

func runRecord(ctx context.Context, opts *RecordOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	sc, err := scenario.Load(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeScenario, "failed to load scenario", err)
	}
	f.VerboseLog("Recording %d calls from scenario %s", len(sc.Calls), sc.Name)

	result, err := scenario.Run(ctx, sc, scenario.WithLogger(opts.Logger()))
	var expErr *scenario.ExpectationError
	switch {
	case errors.As(err, &expErr):
		if outErr := f.Error(ErrCodeExpectation, expErr.Error(), expErr.Mismatches); outErr != nil {
			return WrapExitError(ExitCommandError, "failed to write output", outErr)
		}
		return &ExitError{Code: ExitFailure, Message: "scenario expectations not met", Err: expErr, Reported: true}
	case err != nil:
		return f.Fail(ExitCommandError, ErrCodeScenario, "failed to run scenario", err)
	}

	out := RecordResult{
		Scenario: sc.Name,
		Device:   sc.Device,
		Nodes:    result.Nodes,
		Stats:    result.Stats,
		Output:   opts.Output,
	}

	if opts.Output != "" {
		if err := writeOutput(cmd, opts.Output, []byte(result.Trace)); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write trace", err)
		}
	}

	if opts.Database != "" {
		tree, err := trace.Unmarshal([]byte(result.Trace))
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to reload recorded trace", err)
		}
		st, err := openStore(opts.Database, f)
		if err != nil {
			return err
		}
		defer st.Close()
		info, err := st.SaveTrace(ctx, sc.Device, tree)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to store trace", err)
		}
		out.TraceID = info.ID
	}

	if opts.Format == "json" {
		if opts.Output == "" {
			out.Trace = result.Trace
		}
		return f.Success(out)
	}

	if opts.Output == "" && opts.Database == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), result.Trace)
		return err
	}
	msg := fmt.Sprintf("Recorded %d calls into %d nodes (%d duplicates)",
		out.Stats.Observed, out.Nodes, out.Stats.Duplicates)
	if out.Output != "" {
		msg += "\nWrote " + out.Output
	}
	if out.TraceID != "" {
		msg += "\nStored as " + out.TraceID
	}
	return f.Success(msg)
}
