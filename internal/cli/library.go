package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/mockdev/internal/store"
	"github.com/roach88/mockdev/internal/trace"
)

// LibraryOptions holds the flags shared by the trace library commands.
type LibraryOptions struct {
	*RootOptions
	Database string
	ID       string
	Device   string
	Output   string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <trace>",
		Short: "Store a trace file in a library",
		Long: `Parse a trace file and store it in a library database under the given
device. Malformed traces are rejected.

Examples:
  mockdev import readfile.ioctl --db traces.db --device /dev/bus/usb/001/011`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to library database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Device, "device", "", "device node the trace was recorded from (required)")
	_ = cmd.MarkFlagRequired("device")

	return cmd
}

func runImport(ctx context.Context, opts *LibraryOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	src := &TraceSource{Path: path}
	tree, err := src.load(ctx, cmd, f)
	if err != nil {
		return err
	}

	st, err := openStore(opts.Database, f)
	if err != nil {
		return err
	}
	defer st.Close()

	info, err := st.SaveTrace(ctx, opts.Device, tree)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to store trace", err)
	}

	if opts.Format == "json" {
		return f.Success(info)
	}
	return f.Success(fmt.Sprintf("Imported %s (%d calls) as %s", path, info.Nodes, info.ID))
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a stored trace out as text",
		Long: `Write a stored trace in the trace text format, to stdout or --output.
Without --id the latest trace of --device is exported.

Examples:
  mockdev export --db traces.db --id 0192f3c4-...
  mockdev export --db traces.db --device /dev/bus/usb/001/011 -o latest.ioctl`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to library database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ID, "id", "", "stored trace id")
	cmd.Flags().StringVar(&opts.Device, "device", "", "export the latest trace of this device")
	cmd.MarkFlagsOneRequired("id", "device")
	cmd.MarkFlagsMutuallyExclusive("id", "device")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to this file instead of stdout")

	return cmd
}

func runExport(ctx context.Context, opts *LibraryOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.Database, f)
	if err != nil {
		return err
	}
	defer st.Close()

	id := opts.ID
	if id == "" {
		info, err := st.LatestTrace(ctx, opts.Device)
		if err != nil {
			return failLibrary(f, err)
		}
		id = info.ID
	}

	// A corrupted row fails here instead of being written out.
	tree, err := st.LoadTrace(ctx, id)
	if err != nil {
		return failLoad(f, err)
	}
	if err := writeOutput(cmd, opts.Output, trace.Marshal(tree)); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write trace", err)
	}
	if opts.Output != "" {
		f.VerboseLog("Exported %s to %s", id, opts.Output)
	}
	return nil
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored traces",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to library database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runList(ctx context.Context, opts *LibraryOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.Database, f)
	if err != nil {
		return err
	}
	defer st.Close()

	traces, err := st.ListTraces(ctx)
	if err != nil {
		return failLibrary(f, err)
	}
	if traces == nil {
		traces = []store.TraceInfo{}
	}

	if opts.Format == "json" {
		return f.Success(traces)
	}
	if len(traces) == 0 {
		return f.Success("No traces stored")
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tDEVICE\tCALLS")
	for _, t := range traces {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", t.Seq, t.ID, t.Device, t.Nodes)
	}
	tw.Flush()
	return f.Success(strings.TrimRight(b.String(), "\n"))
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "delete",
		Short:         "Remove a stored trace",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to library database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ID, "id", "", "stored trace id (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runDelete(ctx context.Context, opts *LibraryOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.Database, f)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteTrace(ctx, opts.ID); err != nil {
		return failLibrary(f, err)
	}
	if opts.Format == "json" {
		return f.Success(map[string]string{"deleted": opts.ID})
	}
	return f.Success("Deleted " + opts.ID)
}

func failLibrary(f *OutputFormatter, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "trace not found", err)
	}
	return f.Fail(ExitCommandError, ErrCodeDatabase, "trace library error", err)
}
