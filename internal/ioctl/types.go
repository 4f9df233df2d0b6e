package ioctl

import (
	"fmt"
	"strings"
)

// Kind identifies the layout family of an ioctl. The set is closed.
type Kind int

const (
	KindConnectInfo Kind = iota + 1
	KindCapabilities
	KindURB
)

func (k Kind) String() string {
	switch k {
	case KindConnectInfo:
		return "connectinfo"
	case KindCapabilities:
		return "capabilities"
	case KindURB:
		return "urb"
	default:
		return "unknown"
	}
}

// Value is a decoded, independently owned ioctl payload. The concrete type is
// one of ConnectInfo, Capabilities or URB.
type Value interface {
	kind() Kind
}

// Type describes one registered ioctl family. Types are process-wide
// constants; obtain them with LookupByID or LookupByName.
type Type struct {
	name   string
	id     uint32
	kind   Kind
	fields []string

	// bufferField names the header field giving the trailing buffer length,
	// empty when the family carries no buffer.
	bufferField string
}

// Name returns the symbolic ioctl name, e.g. "USBDEVFS_REAPURB".
func (t *Type) Name() string { return t.name }

// ID returns the ioctl request number.
func (t *Type) ID() uint32 { return t.id }

// Kind returns the layout family.
func (t *Type) Kind() Kind { return t.kind }

// Fields returns the ordered scalar header field names.
func (t *Type) Fields() []string {
	out := make([]string, len(t.fields))
	copy(out, t.fields)
	return out
}

// BufferField returns the name of the header field that sizes the trailing
// buffer, and false if the family has no buffer.
func (t *Type) BufferField() (string, bool) {
	return t.bufferField, t.bufferField != ""
}

// FieldCount is the number of serialized fields: the header fields plus one
// for the trailing hex buffer, if any.
func (t *Type) FieldCount() int {
	if t.bufferField != "" {
		return len(t.fields) + 1
	}
	return len(t.fields)
}

func (t *Type) String() string { return t.name }

// Decode copies a native ioctl argument into a Value.
//
// Accepted raw forms per family:
//   - connectinfo: *ConnectInfo, or []byte in the kernel layout
//   - capabilities: *uint32, or []byte in the kernel layout
//   - urb: **URB (the kernel hands back a pointer to the reaped URB pointer)
func (t *Type) Decode(raw any) (Value, error) {
	switch t.kind {
	case KindConnectInfo:
		return decodeConnectInfo(t, raw)
	case KindCapabilities:
		return decodeCapabilities(t, raw)
	case KindURB:
		return decodeURB(t, raw)
	}
	return nil, invalidArgument(t, "unsupported kind %s", t.kind)
}

// Encode renders v as its serialized field list. For families with a buffer
// the last element is the uppercase hex payload (possibly empty).
//
// Encode panics if v does not belong to t's kind; records built through
// Decode or Parse always match.
func (t *Type) Encode(v Value) []string {
	if v == nil || v.kind() != t.kind {
		panic(fmt.Sprintf("ioctl: %s cannot encode %T", t.name, v))
	}
	switch v := v.(type) {
	case ConnectInfo:
		return v.encode()
	case Capabilities:
		return v.encode()
	case URB:
		return v.encode()
	}
	panic(fmt.Sprintf("ioctl: %s cannot encode %T", t.name, v))
}

// Parse is the inverse of Encode. Errors carry ErrCodeMalformedTrace.
func (t *Type) Parse(fields []string) (Value, error) {
	if len(fields) != t.FieldCount() {
		return nil, malformed(t, "expected %d fields, got %d", t.FieldCount(), len(fields))
	}
	switch t.kind {
	case KindConnectInfo:
		return parseConnectInfo(t, fields)
	case KindCapabilities:
		return parseCapabilities(t, fields)
	case KindURB:
		return parseURB(t, fields)
	}
	return nil, malformed(t, "unsupported kind %s", t.kind)
}

// Equivalent reports whether a and b identify the same call. Only identifying
// fields take part; the excluded set is per family:
//   - connectinfo: none excluded
//   - capabilities: none excluded
//   - urb: error_count is excluded, and IN payloads are compared only up to
//     actual_length (bytes past it are stale buffer content)
func (t *Type) Equivalent(a, b Value) bool {
	switch a := a.(type) {
	case ConnectInfo:
		b, ok := b.(ConnectInfo)
		return ok && a == b
	case Capabilities:
		b, ok := b.(Capabilities)
		return ok && a == b
	case URB:
		b, ok := b.(URB)
		return ok && a.equivalent(b)
	}
	return false
}

// Continues reports whether a call of this family carrying v is a
// continuation (a response) of an earlier call rather than a self-standing
// episode. connectinfo and capabilities never continue anything. URBs
// continue when they are IN transfers: data flowing from the device answers
// the request that preceded it.
func (t *Type) Continues(v Value) bool {
	switch v := v.(type) {
	case URB:
		return t.kind == KindURB && v.In()
	}
	return false
}

// CanContinue reports whether a continuation of this family may attach
// beneath a node of family prev.
func (t *Type) CanContinue(prev *Type) bool {
	return t.kind == KindURB && prev != nil && prev.kind == KindURB
}

// Record is a decoded call tagged with its family. Records are immutable.
type Record struct {
	Type  *Type
	Value Value
}

// NewRecord looks up the family registered for id and decodes raw with it.
func NewRecord(id uint32, raw any) (Record, error) {
	t, ok := LookupByID(id)
	if !ok {
		return Record{}, NewUnknownIDError(id)
	}
	v, err := t.Decode(raw)
	if err != nil {
		return Record{}, err
	}
	return Record{Type: t, Value: v}, nil
}

// ParseRecord builds a record from an ioctl name and its serialized fields.
func ParseRecord(name string, fields []string) (Record, error) {
	t, ok := LookupByName(name)
	if !ok {
		return Record{}, NewUnknownNameError(name)
	}
	v, err := t.Parse(fields)
	if err != nil {
		return Record{}, err
	}
	return Record{Type: t, Value: v}, nil
}

// IsZero reports whether r is the zero Record.
func (r Record) IsZero() bool {
	return r.Type == nil
}

// Equivalent reports whether r and o are of the same family and identify the
// same call.
func (r Record) Equivalent(o Record) bool {
	return r.Type != nil && r.Type == o.Type && r.Type.Equivalent(r.Value, o.Value)
}

// Continues reports whether r attaches beneath an earlier call.
func (r Record) Continues() bool {
	return r.Type.Continues(r.Value)
}

// Fields returns the serialized field list.
func (r Record) Fields() []string {
	return r.Type.Encode(r.Value)
}

// String renders r as a trace line without indentation.
func (r Record) String() string {
	if r.Type == nil {
		return "<none>"
	}
	return r.Type.name + " " + strings.Join(r.Fields(), " ")
}
