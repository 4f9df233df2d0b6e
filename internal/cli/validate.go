package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mockdev/internal/ioctl"
	"github.com/roach88/mockdev/internal/trace"
)

// ValidationIssue locates why a trace failed to parse.
type ValidationIssue struct {
	Line    int    `json:"line,omitempty"`
	Ioctl   string `json:"ioctl,omitempty"`
	Message string `json:"message"`
}

// TraceValidation is the result for one trace file.
type TraceValidation struct {
	Path  string           `json:"path"`
	Valid bool             `json:"valid"`
	Calls int              `json:"calls,omitempty"`
	Issue *ValidationIssue `json:"issue,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Traces []TraceValidation `json:"traces"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <trace>...",
		Short: "Check that trace files parse",
		Long: `Parse each trace file and report the first malformed line of every
file that fails. Exits 1 if any file is malformed.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	result := ValidationResult{Valid: true}
	for _, path := range paths {
		v, err := validateFile(path)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "failed to open trace", err)
		}
		f.VerboseLog("Validated %s", path)
		result.Valid = result.Valid && v.Valid
		result.Traces = append(result.Traces, v)
	}

	if opts.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		var b strings.Builder
		for i, v := range result.Traces {
			if i > 0 {
				b.WriteByte('\n')
			}
			switch {
			case v.Valid:
				fmt.Fprintf(&b, "%s: ok (%d calls)", v.Path, v.Calls)
			case v.Issue.Line > 0:
				fmt.Fprintf(&b, "%s:%d: %s", v.Path, v.Issue.Line, v.Issue.Message)
			default:
				fmt.Fprintf(&b, "%s: %s", v.Path, v.Issue.Message)
			}
		}
		if err := f.Success(b.String()); err != nil {
			return err
		}
	}

	if !result.Valid {
		return &ExitError{Code: ExitFailure, Message: "malformed traces", Reported: true}
	}
	return nil
}

// validateFile reports parse failures in the result. The error is reserved
// for files that cannot be opened.
func validateFile(path string) (TraceValidation, error) {
	file, err := os.Open(path)
	if err != nil {
		return TraceValidation{}, err
	}
	defer file.Close()

	v := TraceValidation{Path: path}
	tree, err := trace.Read(file)
	if err == nil {
		v.Valid = true
		v.Calls = tree.Len()
		return v, nil
	}

	v.Issue = &ValidationIssue{Message: err.Error()}
	var ie *ioctl.Error
	if errors.As(err, &ie) {
		v.Issue.Line = ie.Line
		v.Issue.Ioctl = ie.Type
		v.Issue.Message = ie.Message
	}
	return v, nil
}
