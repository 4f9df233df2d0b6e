// Package session hosts recording and replay sessions over a call tree.
//
// A calltree.Tree is single-threaded. A process that intercepts ioctls may
// see them on several threads, so Recorder and Replayer own their tree
// exclusively and serialize every operation with one mutex per session.
//
// Every observed or answered call is stamped with a sequence number from a
// logical Clock. Sequence numbers order log lines; wall-clock time is never
// consulted.
//
// Recording errors are per call: Record logs and returns them, and the
// session remains usable. The caller skips the call and continues.
package session
