package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/mockdev/internal/calltree"
	"github.com/roach88/mockdev/internal/ioctl"
	"github.com/roach88/mockdev/internal/trace"
)

// Stats counts what a Recorder has seen.
type Stats struct {
	Observed   int `json:"observed"`
	Novel      int `json:"novel"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// Recorder merges observed ioctls into a call tree.
type Recorder struct {
	mu     sync.Mutex
	tree   *calltree.Tree
	clock  Clock
	logger *slog.Logger
	stats  Stats
}

// NewRecorder starts a recording into an empty tree.
func NewRecorder(opts ...Option) *Recorder {
	return NewRecorderFrom(calltree.New(), opts...)
}

// NewRecorderFrom continues recording into an existing tree, typically one
// loaded from an earlier trace. The recorder takes ownership of tree.
func NewRecorderFrom(tree *calltree.Tree, opts ...Option) *Recorder {
	cfg := newConfig(opts)
	return &Recorder{
		tree:   tree,
		clock:  cfg.clock,
		logger: cfg.logger,
	}
}

// Record decodes the raw argument of ioctl id and merges it into the tree.
// It reports whether the call was structurally novel.
//
// UNKNOWN_TYPE and INVALID_ARGUMENT errors are logged, counted and returned;
// the tree is unchanged and recording may continue.
func (r *Recorder) Record(ctx context.Context, id uint32, raw any) (bool, error) {
	rec, err := ioctl.NewRecord(id, raw)
	if err != nil {
		r.mu.Lock()
		r.stats.Observed++
		r.stats.Rejected++
		seq := r.clock.Next()
		r.mu.Unlock()

		r.logger.WarnContext(ctx, "skipping unrecordable ioctl",
			"seq", seq,
			"request", fmt.Sprintf("0x%X", id),
			"error", err,
		)
		return false, err
	}
	return r.Observe(ctx, rec)
}

// Observe merges an already decoded record. rec must come from
// ioctl.NewRecord or ioctl.ParseRecord.
func (r *Recorder) Observe(ctx context.Context, rec ioctl.Record) (bool, error) {
	if rec.IsZero() {
		return false, &ioctl.Error{Code: ioctl.ErrCodeInvalidArgument, Message: "empty record"}
	}

	r.mu.Lock()
	seq := r.clock.Next()
	id, found := r.tree.Insert(rec)
	r.stats.Observed++
	if found {
		r.stats.Duplicates++
	} else {
		r.stats.Novel++
	}
	depth := r.tree.Depth(id)
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "ioctl recorded",
		"seq", seq,
		"ioctl", rec.Type.Name(),
		"node", id,
		"depth", depth,
		"novel", !found,
	)
	return !found, nil
}

// Stats returns a snapshot of the counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Len returns the number of distinct recorded calls.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.Len()
}

// Save writes the trace of everything recorded so far to w.
func (r *Recorder) Save(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := trace.Write(w, r.tree); err != nil {
		return fmt.Errorf("save trace: %w", err)
	}
	return nil
}

// Tree returns the recorded tree. The caller must not use the Recorder
// afterwards.
func (r *Recorder) Tree() *calltree.Tree {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree
}
