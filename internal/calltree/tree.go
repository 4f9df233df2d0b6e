package calltree

import "github.com/roach88/mockdev/internal/ioctl"

// NodeID addresses a node within its Tree. IDs are stable for the lifetime of
// the tree.
type NodeID int32

// NoNode is the absent NodeID.
const NoNode NodeID = -1

type node struct {
	rec      ioctl.Record
	child    NodeID
	next     NodeID
	parent   NodeID // true hierarchical predecessor; NoNode for top-level nodes
	topLevel bool
	depth    int
}

// Tree is a recorded call tree.
//
// INVARIANTS:
//   - every node except the root has exactly one owner edge (a child or next slot)
//   - Insert never puts two equivalent records in one sibling chain
//   - depth equals the number of parent hops to the top level
type Tree struct {
	nodes  []node
	root   NodeID
	cursor NodeID

	// recent holds, per family, the most recently inserted-or-matched node,
	// oldest first. Continuations anchor on it. At most one entry per
	// registered family.
	recent []NodeID
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{root: NoNode, cursor: NoNode}
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the first top-level node, or NoNode for an empty tree.
func (t *Tree) Root() NodeID { return t.root }

// Cursor returns the most recently inserted-or-matched node (recording) or
// the most recently answered node (replay).
func (t *Tree) Cursor() NodeID { return t.cursor }

// SetCursor moves the cursor to id. Replay uses it to advance; it never
// changes structure.
func (t *Tree) SetCursor(id NodeID) {
	if id != NoNode {
		t.mustValid(id)
	}
	t.cursor = id
}

// Record returns the call recorded at id.
func (t *Tree) Record(id NodeID) ioctl.Record { return t.at(id).rec }

// Child returns the first continuation of id.
func (t *Tree) Child(id NodeID) NodeID { return t.at(id).child }

// NextSibling returns the next sibling of id: the next alternative at the same
// attachment point, or for top-level nodes the next episode.
func (t *Tree) NextSibling(id NodeID) NodeID { return t.at(id).next }

// Parent returns the true hierarchical predecessor of id. It reports false
// for top-level nodes.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	n := t.at(id)
	if n.topLevel {
		return NoNode, false
	}
	return n.parent, true
}

// IsTopLevel reports whether id sits on the top-level chain.
func (t *Tree) IsTopLevel(id NodeID) bool { return t.at(id).topLevel }

// Depth returns the number of parent hops from id to the top level.
func (t *Tree) Depth(id NodeID) int { return t.at(id).depth }

// Children returns the alternatives attached beneath id, in insertion order.
// Children(NoNode) returns the top-level chain.
func (t *Tree) Children(id NodeID) []NodeID {
	var out []NodeID
	for n := t.chainHead(id); n != NoNode; n = t.nodes[n].next {
		out = append(out, n)
	}
	return out
}

// Attach appends rec at the end of parent's child chain, or at the end of the
// top-level chain when parent is NoNode. No deduplication is applied; trace
// loading uses it to rebuild a tree that was deduplicated when recorded.
// The cursor is left untouched.
func (t *Tree) Attach(parent NodeID, rec ioctl.Record) NodeID {
	last := NoNode
	for n := t.chainHead(parent); n != NoNode; n = t.nodes[n].next {
		last = n
	}
	return t.link(parent, last, rec)
}

func (t *Tree) chainHead(parent NodeID) NodeID {
	if parent == NoNode {
		return t.root
	}
	return t.at(parent).child
}

// link creates a node for rec after last in parent's chain. last is NoNode
// when the chain is empty.
func (t *Tree) link(parent, last NodeID, rec ioctl.Record) NodeID {
	id := NodeID(len(t.nodes))
	n := node{
		rec:      rec,
		child:    NoNode,
		next:     NoNode,
		parent:   parent,
		topLevel: parent == NoNode,
	}
	if parent != NoNode {
		n.depth = t.nodes[parent].depth + 1
	}
	t.nodes = append(t.nodes, n)

	switch {
	case last != NoNode:
		t.nodes[last].next = id
	case parent != NoNode:
		t.nodes[parent].child = id
	default:
		t.root = id
	}
	return id
}

func (t *Tree) at(id NodeID) *node {
	t.mustValid(id)
	return &t.nodes[id]
}

func (t *Tree) mustValid(id NodeID) {
	if id < 0 || int(id) >= len(t.nodes) {
		panic("calltree: invalid node id")
	}
}
