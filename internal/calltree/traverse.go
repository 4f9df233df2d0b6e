package calltree

import "iter"

// Next returns the node after id in preorder: the first child if any,
// otherwise the next sibling of id or of its nearest ancestor that has one.
// Climbing stops at the top level; Next reports false once the last node of
// the tree has been passed.
func (t *Tree) Next(id NodeID) (NodeID, bool) {
	n := t.at(id)
	if n.child != NoNode {
		return n.child, true
	}
	for cur := id; ; {
		n := &t.nodes[cur]
		if n.next != NoNode {
			return n.next, true
		}
		if n.topLevel {
			return NoNode, false
		}
		cur = n.parent
	}
}

// NextWrap is Next, except that it returns the root instead of reporting
// exhaustion. It lets a finite recording answer an unbounded session.
func (t *Tree) NextWrap(id NodeID) NodeID {
	if next, ok := t.Next(id); ok {
		return next
	}
	return t.root
}

// All yields every node once, in preorder.
func (t *Tree) All() iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		if t.root == NoNode {
			return
		}
		for id, ok := t.root, true; ok; id, ok = t.Next(id) {
			if !yield(id) {
				return
			}
		}
	}
}
