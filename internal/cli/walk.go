package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mockdev/internal/calltree"
	"github.com/roach88/mockdev/internal/session"
)

// WalkStep is one answered call of a replay walk.
type WalkStep struct {
	Step   int             `json:"step"`
	Node   calltree.NodeID `json:"node"`
	Ioctl  string          `json:"ioctl"`
	Fields []string        `json:"fields"`
}

// NewWalkCommand creates the walk command.
func NewWalkCommand(rootOpts *RootOptions) *cobra.Command {
	src := &TraceSource{}
	var steps int

	cmd := &cobra.Command{
		Use:   "walk [trace]",
		Short: "Print the replay order of a trace",
		Long: `Step a replayer through a trace and print each call it answers.

Replay follows preorder and wraps to the first call after the last one, so
--steps larger than the trace shows the wraparound. By default every call
is visited once.

Examples:
  mockdev walk readfile.ioctl
  mockdev walk readfile.ioctl --steps 25`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				src.Path = args[0]
			}
			return runWalk(cmd.Context(), rootOpts, src, steps, cmd)
		},
	}
	src.addFlags(cmd)
	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "number of calls to replay (default: trace length)")

	return cmd
}

func runWalk(ctx context.Context, opts *RootOptions, src *TraceSource, steps int, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	if steps < 0 {
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("invalid --steps %d", steps), nil)
	}

	tree, err := src.load(ctx, cmd, f)
	if err != nil {
		return err
	}
	r, err := session.NewReplayer(tree, session.WithLogger(opts.Logger()))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "cannot replay", err)
	}
	if steps == 0 {
		steps = r.Len()
	}

	walk := make([]WalkStep, 0, steps)
	for i := range steps {
		rec := r.Advance()
		walk = append(walk, WalkStep{
			Step:   i + 1,
			Node:   r.Position(),
			Ioctl:  rec.Type.Name(),
			Fields: rec.Fields(),
		})
	}

	if opts.Format == "json" {
		return f.Success(walk)
	}

	var b strings.Builder
	for i, s := range walk {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%4d  [%d] %s %s", s.Step, s.Node, s.Ioctl, strings.Join(s.Fields, " "))
	}
	return f.Success(b.String())
}
