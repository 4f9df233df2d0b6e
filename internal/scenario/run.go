package scenario

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/mockdev/internal/ioctl"
	"github.com/roach88/mockdev/internal/session"
)

// Result is the outcome of running a scenario.
type Result struct {
	Name  string        `json:"name"`
	Novel []bool        `json:"novel"`
	Nodes int           `json:"nodes"`
	Stats session.Stats `json:"stats"`
	Trace string        `json:"trace"`
}

// ExpectationError lists every expectation a run did not meet.
type ExpectationError struct {
	Scenario   string
	Mismatches []string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("scenario %s: %s", e.Scenario, strings.Join(e.Mismatches, "; "))
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes recorder logs to l. By default they are discarded.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run records sc's calls into a fresh tree.
//
// A call that does not describe a valid record aborts the run. When the
// run completes but an expectation is not met, Run returns the Result
// together with an *ExpectationError.
func Run(ctx context.Context, sc *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}

	records := make([]ioctl.Record, len(sc.Calls))
	for i, call := range sc.Calls {
		rec, err := call.Record()
		if err != nil {
			return nil, fmt.Errorf("scenario %s: calls[%d]: %w", sc.Name, i, err)
		}
		records[i] = rec
	}

	rec := session.NewRecorder(
		session.WithLogger(cfg.logger),
		session.WithDevice(sc.Device),
	)

	result := &Result{Name: sc.Name, Novel: make([]bool, 0, len(records))}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		novel, err := rec.Observe(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		result.Novel = append(result.Novel, novel)
	}

	var buf bytes.Buffer
	if err := rec.Save(&buf); err != nil {
		return nil, err
	}
	result.Nodes = rec.Len()
	result.Stats = rec.Stats()
	result.Trace = buf.String()

	if mismatches := check(sc.Expect, result); len(mismatches) > 0 {
		return result, &ExpectationError{Scenario: sc.Name, Mismatches: mismatches}
	}
	return result, nil
}

func check(exp *Expect, r *Result) []string {
	if exp == nil {
		return nil
	}
	var out []string
	if exp.Nodes != nil && *exp.Nodes != r.Nodes {
		out = append(out, fmt.Sprintf("nodes: expected %d, got %d", *exp.Nodes, r.Nodes))
	}
	if exp.Duplicates != nil && *exp.Duplicates != r.Stats.Duplicates {
		out = append(out, fmt.Sprintf("duplicates: expected %d, got %d", *exp.Duplicates, r.Stats.Duplicates))
	}
	if exp.Rejected != nil && *exp.Rejected != r.Stats.Rejected {
		out = append(out, fmt.Sprintf("rejected: expected %d, got %d", *exp.Rejected, r.Stats.Rejected))
	}
	if exp.Trace != nil && *exp.Trace != r.Trace {
		out = append(out, fmt.Sprintf("trace: expected %q, got %q", *exp.Trace, r.Trace))
	}
	return out
}
