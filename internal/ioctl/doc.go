// Package ioctl is the catalog of ioctl families the call-trace engine can
// record and replay.
//
// Each family is a *Type with a fixed layout: an ordered list of scalar header
// fields and, for some families, a trailing opaque byte buffer whose length is
// given by one header field. The catalog is closed and built once; all per-family
// behavior (decode, encode, parse, equivalence, insertion classification) is
// dispatched by switching on Kind or on the concrete Value, never through
// per-type function pointers.
//
// This package imports nothing internal. calltree, trace and everything above
// them build on it.
//
// Payload ownership:
//   - Decode always deep-copies out of caller memory; a Value never aliases
//     the buffer it was decoded from.
//   - Values are treated as immutable once built. Nothing in this module
//     writes to a Value's Buffer after Decode or Parse returns it.
package ioctl
