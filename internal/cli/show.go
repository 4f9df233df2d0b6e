package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mockdev/internal/calltree"
)

// NodeView is one node of a shown tree.
type NodeView struct {
	Node     calltree.NodeID  `json:"node"`
	Depth    int              `json:"depth"`
	Parent   *calltree.NodeID `json:"parent,omitempty"`
	TopLevel bool             `json:"top_level"`
	Ioctl    string           `json:"ioctl"`
	Fields   []string         `json:"fields"`
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Nodes []NodeView `json:"nodes"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	src := &TraceSource{}

	cmd := &cobra.Command{
		Use:   "show [trace]",
		Short: "List the calls of a trace in preorder",
		Long: `Parse a trace and list every recorded call in preorder with its node
id and depth. Read from a file, "-" for stdin, or a stored trace.

Examples:
  mockdev show readfile.ioctl
  mockdev show --db traces.db --id 0192f3c4-... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				src.Path = args[0]
			}
			return runShow(cmd.Context(), rootOpts, src, cmd)
		},
	}
	src.addFlags(cmd)

	return cmd
}

func runShow(ctx context.Context, opts *RootOptions, src *TraceSource, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	tree, err := src.load(ctx, cmd, f)
	if err != nil {
		return err
	}

	result := ShowResult{Nodes: []NodeView{}}
	for id := range tree.All() {
		rec := tree.Record(id)
		view := NodeView{
			Node:     id,
			Depth:    tree.Depth(id),
			TopLevel: tree.IsTopLevel(id),
			Ioctl:    rec.Type.Name(),
			Fields:   rec.Fields(),
		}
		if parent, ok := tree.Parent(id); ok {
			view.Parent = &parent
		}
		result.Nodes = append(result.Nodes, view)
	}

	if opts.Format == "json" {
		return f.Success(result)
	}

	var b strings.Builder
	for _, n := range result.Nodes {
		fmt.Fprintf(&b, "%4d  %s%s %s\n", n.Node, strings.Repeat("  ", n.Depth), n.Ioctl, strings.Join(n.Fields, " "))
	}
	fmt.Fprintf(&b, "%d calls", len(result.Nodes))
	return f.Success(b.String())
}
