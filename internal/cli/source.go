package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mockdev/internal/calltree"
	"github.com/roach88/mockdev/internal/ioctl"
	"github.com/roach88/mockdev/internal/store"
	"github.com/roach88/mockdev/internal/trace"
)

// TraceSource selects where a command reads its trace from: a file path
// ("-" for stdin), or a stored trace in a library database.
type TraceSource struct {
	Path     string
	Database string
	ID       string
}

func (s *TraceSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.Database, "db", "", "read the trace from this library database")
	cmd.Flags().StringVar(&s.ID, "id", "", "stored trace id (with --db)")
	cmd.MarkFlagsRequiredTogether("db", "id")
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// load reads and parses the selected trace. Failures are reported through f.
func (s *TraceSource) load(ctx context.Context, cmd *cobra.Command, f *OutputFormatter) (*calltree.Tree, error) {
	switch {
	case s.Database != "" && s.Path != "":
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "give either a trace file or --db/--id, not both", nil)
	case s.Database != "":
		st, err := openStore(s.Database, f)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		tree, err := st.LoadTrace(ctx, s.ID)
		if err != nil {
			return nil, failLoad(f, err)
		}
		f.VerboseLog("Loaded trace %s from %s (%d calls)", s.ID, s.Database, tree.Len())
		return tree, nil
	case s.Path == "":
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, "no trace given", nil)
	}

	var r io.Reader = cmd.InOrStdin()
	if s.Path != "-" {
		file, err := os.Open(s.Path)
		if err != nil {
			return nil, failLoad(f, err)
		}
		defer file.Close()
		r = file
	}
	tree, err := trace.Read(r)
	if err != nil {
		return nil, failLoad(f, err)
	}
	f.VerboseLog("Loaded trace %s (%d calls)", s.Path, tree.Len())
	return tree, nil
}

func failLoad(f *OutputFormatter, err error) error {
	switch {
	case ioctl.IsMalformedTrace(err):
		return f.Fail(ExitFailure, ErrCodeMalformed, "malformed trace", err)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return f.Fail(ExitCommandError, ErrCodeNotFound, "trace not found", err)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to read trace", err)
}

func openStore(path string, f *OutputFormatter) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	return st, nil
}

// writeOutput writes data to path, or to the command output when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
