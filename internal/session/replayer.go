package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/mockdev/internal/calltree"
	"github.com/roach88/mockdev/internal/ioctl"
)

var (
	// ErrNoMatch is returned when no recorded call answers a request.
	ErrNoMatch = errors.New("no recorded call matches")

	// ErrEmptyTrace is returned when replaying a tree with no nodes.
	ErrEmptyTrace = errors.New("trace has no recorded calls")
)

// Replayer answers calls from a recorded tree. The position starts before
// the root; every answered call moves it to the answering node.
type Replayer struct {
	mu     sync.Mutex
	tree   *calltree.Tree
	clock  Clock
	logger *slog.Logger
}

// NewReplayer takes ownership of tree and resets its cursor.
func NewReplayer(tree *calltree.Tree, opts ...Option) (*Replayer, error) {
	if tree == nil || tree.Len() == 0 {
		return nil, ErrEmptyTrace
	}
	cfg := newConfig(opts)
	tree.SetCursor(calltree.NoNode)
	return &Replayer{
		tree:   tree,
		clock:  cfg.clock,
		logger: cfg.logger,
	}, nil
}

// Submit answers a call whose argument identifies it. Nodes where req would
// have been attached while recording are tried first, then the whole tree in
// preorder starting after the current position.
func (r *Replayer) Submit(ctx context.Context, req ioctl.Record) (ioctl.Record, error) {
	if req.IsZero() {
		return ioctl.Record{}, &ioctl.Error{Code: ioctl.ErrCodeInvalidArgument, Message: "empty request"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.candidate(req)
	if !ok {
		id, ok = r.scan(func(rec ioctl.Record) bool { return rec.Equivalent(req) })
	}
	if !ok {
		r.logger.WarnContext(ctx, "unanswered ioctl", "seq", r.clock.Next(), "ioctl", req.Type.Name())
		return ioctl.Record{}, fmt.Errorf("%w: %s", ErrNoMatch, req)
	}
	return r.answer(ctx, id), nil
}

// Reap answers a call whose argument is output only, such as reaping a
// completed URB. The next node of the same kind as t in preorder is used.
func (r *Replayer) Reap(ctx context.Context, t *ioctl.Type) (ioctl.Record, error) {
	if t == nil {
		return ioctl.Record{}, &ioctl.Error{Code: ioctl.ErrCodeInvalidArgument, Message: "nil ioctl type"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.scan(func(rec ioctl.Record) bool { return rec.Type.Kind() == t.Kind() })
	if !ok {
		r.logger.WarnContext(ctx, "unanswered ioctl", "seq", r.clock.Next(), "ioctl", t.Name())
		return ioctl.Record{}, fmt.Errorf("%w: %s", ErrNoMatch, t.Name())
	}
	return r.answer(ctx, id), nil
}

// Advance moves to the next node in preorder, wrapping at the end.
func (r *Replayer) Advance() ioctl.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.after()
	r.tree.SetCursor(id)
	return r.tree.Record(id)
}

// Position returns the node of the last answer, or calltree.NoNode.
func (r *Replayer) Position() calltree.NodeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.Cursor()
}

// Reset moves the position back before the root.
func (r *Replayer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.SetCursor(calltree.NoNode)
}

// Len returns the number of recorded calls.
func (r *Replayer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.Len()
}

func (r *Replayer) candidate(req ioctl.Record) (calltree.NodeID, bool) {
	parent := calltree.NoNode
	if cur := r.tree.Cursor(); cur != calltree.NoNode && req.Continues() &&
		req.Type.CanContinue(r.tree.Record(cur).Type) {
		parent = cur
	}
	for _, id := range r.tree.Children(parent) {
		if r.tree.Record(id).Equivalent(req) {
			return id, true
		}
	}
	return calltree.NoNode, false
}

// scan visits every node once in preorder, starting after the cursor.
func (r *Replayer) scan(match func(ioctl.Record) bool) (calltree.NodeID, bool) {
	id := r.after()
	for range r.tree.Len() {
		if match(r.tree.Record(id)) {
			return id, true
		}
		id = r.tree.NextWrap(id)
	}
	return calltree.NoNode, false
}

// after returns the node following the cursor; the root when there is none.
func (r *Replayer) after() calltree.NodeID {
	if cur := r.tree.Cursor(); cur != calltree.NoNode {
		return r.tree.NextWrap(cur)
	}
	return r.tree.Root()
}

func (r *Replayer) answer(ctx context.Context, id calltree.NodeID) ioctl.Record {
	r.tree.SetCursor(id)
	rec := r.tree.Record(id)
	r.logger.DebugContext(ctx, "ioctl replayed",
		"seq", r.clock.Next(),
		"ioctl", rec.Type.Name(),
		"node", id,
	)
	return rec
}
