// Package calltree holds recorded ioctl calls as a branching tree and
// implements the insertion (deduplicating merge) and traversal contracts used
// for recording and replay.
//
// The tree is a first-child/next-sibling structure stored in an arena and
// addressed by stable NodeID indices:
//
//	(root) CI ── OUT1 ────── OUT2 ───────── CI2      top-level chain
//	              │           │
//	             IN1a        IN2a ── IN3             alternatives
//	              │           │
//	             IN1b        IN2b
//	                          │
//	                         IN2c
//
// Top-level nodes are independent call episodes. A node's child chain holds
// the alternative continuations observed after it; a chain never contains
// two equivalent records. Top-level-ness is an explicit tag on each node, so
// climbing during traversal stops at the top-level boundary without
// consulting the parent field.
//
// A Tree is not safe for concurrent use. A host that intercepts calls from
// several threads must serialize Insert and cursor movement itself (see
// package session).
package calltree
