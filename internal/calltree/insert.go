package calltree

import "github.com/roach88/mockdev/internal/ioctl"

// Insert merges an observed call into the tree.
//
// A self-standing call is matched against the top-level chain. A
// continuation (see ioctl.Type.Continues) is matched against the child chain
// of its anchor: the most recently inserted-or-matched node of a family it
// can continue. Calls of unrelated families observed in between do not move
// the anchor. A continuation with no anchor is treated as self-standing.
//
// A record equivalent to the cursor is a no-op that returns the cursor. If
// an equivalent node sits in the attachment chain, rec is dropped, the cursor
// moves to that node and Insert returns it with true. Otherwise rec is
// appended at the end of the chain, becomes the cursor, and Insert returns
// the new node with false.
//
// Cost is proportional to the length of the attachment chain.
func (t *Tree) Insert(rec ioctl.Record) (NodeID, bool) {
	if t.root == NoNode {
		id := t.link(NoNode, NoNode, rec)
		t.touch(id)
		return id, false
	}

	// Re-observing the cursor confirms it.
	if t.cursor != NoNode && t.nodes[t.cursor].rec.Equivalent(rec) {
		t.touch(t.cursor)
		return t.cursor, true
	}

	anchor := t.anchorFor(rec)

	last := NoNode
	for n := t.chainHead(anchor); n != NoNode; n = t.nodes[n].next {
		if t.nodes[n].rec.Equivalent(rec) {
			t.touch(n)
			return n, true
		}
		last = n
	}

	id := t.link(anchor, last, rec)
	t.touch(id)
	return id, false
}

// anchorFor returns the node rec continues, or NoNode when rec starts a new
// top-level episode.
func (t *Tree) anchorFor(rec ioctl.Record) NodeID {
	if !rec.Continues() {
		return NoNode
	}
	for i := len(t.recent) - 1; i >= 0; i-- {
		cand := t.recent[i]
		if rec.Type.CanContinue(t.nodes[cand].rec.Type) {
			return cand
		}
	}
	return NoNode
}

// touch makes id the cursor and the most recent node of its family.
func (t *Tree) touch(id NodeID) {
	t.cursor = id
	typ := t.nodes[id].rec.Type
	for i, r := range t.recent {
		if t.nodes[r].rec.Type == typ {
			t.recent = append(t.recent[:i], t.recent[i+1:]...)
			break
		}
	}
	t.recent = append(t.recent, id)
}
