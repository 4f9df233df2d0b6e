package ioctl

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustType(t *testing.T, name string) *Type {
	t.Helper()
	typ, ok := LookupByName(name)
	require.True(t, ok, "type %s not registered", name)
	return typ
}

func urbArg(u URB) **URB {
	p := &u
	return &p
}

func TestDecodeConnectInfo(t *testing.T) {
	typ := mustType(t, "USBDEVFS_CONNECTINFO")

	v, err := typ.Decode(&ConnectInfo{DevNum: 11, Slow: 0})
	require.NoError(t, err)
	assert.Equal(t, ConnectInfo{DevNum: 11}, v)

	raw := make([]byte, 8)
	binary.NativeEndian.PutUint32(raw, 42)
	raw[4] = 1
	v, err = typ.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, ConnectInfo{DevNum: 42, Slow: 1}, v)
}

func TestDecodeConnectInfo_Invalid(t *testing.T) {
	typ := mustType(t, "USBDEVFS_CONNECTINFO")

	tests := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"nil pointer", (*ConnectInfo)(nil)},
		{"short payload", []byte{1, 2, 3}},
		{"nil slice", []byte(nil)},
		{"wrong type", "eleven"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := typ.Decode(tt.raw)
			require.Error(t, err)
			assert.True(t, IsInvalidArgument(err), "got %v", err)
		})
	}
}

func TestDecodeCapabilities(t *testing.T) {
	typ := mustType(t, "USBDEVFS_GET_CAPABILITIES")

	caps := uint32(0x1F)
	v, err := typ.Decode(&caps)
	require.NoError(t, err)
	assert.Equal(t, Capabilities{Caps: 0x1F}, v)

	_, err = typ.Decode([]byte{1})
	assert.True(t, IsInvalidArgument(err))
	_, err = typ.Decode((*uint32)(nil))
	assert.True(t, IsInvalidArgument(err))
}

func TestDecodeURB_CopiesBuffer(t *testing.T) {
	typ := mustType(t, "USBDEVFS_REAPURB")

	buf := []byte("this\x00\x00\x00\x00\x00\x00")
	u := &URB{Type: 1, Endpoint: 129, Buffer: buf, BufferLength: 10, ActualLength: 4}
	v, err := typ.Decode(&u)
	require.NoError(t, err)

	got := v.(URB)
	buf[0] = 'X'
	u.ActualLength = 9
	assert.Equal(t, []byte("this"), got.Payload(), "decoded value must not alias caller memory")
	assert.Equal(t, int32(4), got.ActualLength)
	assert.Len(t, got.Buffer, 10)
}

func TestDecodeURB_Invalid(t *testing.T) {
	typ := mustType(t, "USBDEVFS_REAPURB")
	var nilURB *URB

	tests := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"single indirection", &URB{}},
		{"nil outer pointer", (**URB)(nil)},
		{"nil inner pointer", &nilURB},
		{"buffer shorter than length", urbArg(URB{Endpoint: 2, Buffer: []byte("ab"), BufferLength: 4})},
		{"negative length", urbArg(URB{BufferLength: -1})},
		{"actual exceeds length", urbArg(URB{Endpoint: 129, Buffer: make([]byte, 4), BufferLength: 4, ActualLength: 5})},
		{"length over maximum", urbArg(URB{BufferLength: MaxURBBuffer + 1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := typ.Decode(tt.raw)
			require.Error(t, err)
			assert.True(t, IsInvalidArgument(err), "got %v", err)
		})
	}
}

func TestEncode_URBLine(t *testing.T) {
	typ := mustType(t, "USBDEVFS_REAPURB")

	out, err := typ.Decode(urbArg(URB{Type: 1, Endpoint: 2, Buffer: []byte("what"), BufferLength: 4, ActualLength: 4}))
	require.NoError(t, err)
	assert.Equal(t, "1 2 0 0 4 4 0 77686174", strings.Join(typ.Encode(out), " "))

	in, err := typ.Decode(urbArg(URB{Type: 1, Endpoint: 129, Buffer: []byte("andthat\x00\x00\x00"), BufferLength: 10, ActualLength: 7}))
	require.NoError(t, err)
	assert.Equal(t, "1 129 0 0 10 7 0 616E6474686174", strings.Join(typ.Encode(in), " "))
}

func TestEncode_PanicsOnForeignValue(t *testing.T) {
	typ := mustType(t, "USBDEVFS_CONNECTINFO")
	assert.Panics(t, func() { typ.Encode(URB{}) })
}

// Every legal payload must survive parse(encode(decode(raw))).
func TestRoundTrip(t *testing.T) {
	large := bytes.Repeat([]byte{0x00, 0xFF, 0x10}, 1<<14)

	tests := []struct {
		name string
		typ  string
		raw  any
	}{
		{"connectinfo zero", "USBDEVFS_CONNECTINFO", &ConnectInfo{}},
		{"connectinfo max", "USBDEVFS_CONNECTINFO", &ConnectInfo{DevNum: ^uint32(0), Slow: 255}},
		{"capabilities", "USBDEVFS_GET_CAPABILITIES", ptr(uint32(0xDEADBEEF))},
		{"urb out empty", "USBDEVFS_REAPURB", urbArg(URB{Type: 3, Endpoint: 1})},
		{"urb in empty", "USBDEVFS_REAPURB", urbArg(URB{Type: 3, Endpoint: 0x81, Buffer: make([]byte, 8), BufferLength: 8})},
		{"urb out embedded zeros", "USBDEVFS_REAPURB", urbArg(URB{Type: 1, Endpoint: 2, Buffer: []byte{0, 1, 0, 2, 0}, BufferLength: 5, ActualLength: 5})},
		{"urb in partial", "USBDEVFS_REAPURB", urbArg(URB{Type: 1, Endpoint: 129, Buffer: []byte("file2\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"), BufferLength: 15, ActualLength: 5})},
		{"urb negative status", "USBDEVFS_REAPURBNDELAY", urbArg(URB{Type: 2, Endpoint: 0x83, Status: -32, Flags: 0x80000000, ErrorCount: 3, Buffer: make([]byte, 2), BufferLength: 2, ActualLength: 1})},
		{"urb large", "USBDEVFS_REAPURB", urbArg(URB{Type: 3, Endpoint: 4, Buffer: large, BufferLength: int32(len(large)), ActualLength: int32(len(large))})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := mustType(t, tt.typ)
			v, err := typ.Decode(tt.raw)
			require.NoError(t, err)

			fields := typ.Encode(v)
			require.Len(t, fields, typ.FieldCount())
			parsed, err := typ.Parse(fields)
			require.NoError(t, err)
			assert.True(t, typ.Equivalent(v, parsed), "round trip changed identity: %v", fields)
			assert.Equal(t, fields, typ.Encode(parsed))
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		fields []string
	}{
		{"too few fields", "USBDEVFS_CONNECTINFO", []string{"11"}},
		{"too many fields", "USBDEVFS_CONNECTINFO", []string{"11", "0", "7"}},
		{"not a number", "USBDEVFS_CONNECTINFO", []string{"eleven", "0"}},
		{"overflow", "USBDEVFS_CONNECTINFO", []string{"11", "256"}},
		{"negative unsigned", "USBDEVFS_GET_CAPABILITIES", []string{"-1"}},
		{"odd hex", "USBDEVFS_REAPURB", []string{"1", "2", "0", "0", "4", "4", "0", "7768617"}},
		{"bad hex digit", "USBDEVFS_REAPURB", []string{"1", "2", "0", "0", "4", "4", "0", "7768617G"}},
		{"hex shorter than length", "USBDEVFS_REAPURB", []string{"1", "2", "0", "0", "4", "4", "0", "7768"}},
		{"hex longer than actual", "USBDEVFS_REAPURB", []string{"1", "129", "0", "0", "10", "4", "0", "7468697300"}},
		{"actual beyond length", "USBDEVFS_REAPURB", []string{"1", "129", "0", "0", "2", "4", "0", "74686973"}},
		{"missing hex field", "USBDEVFS_REAPURB", []string{"1", "2", "0", "0", "0", "0", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mustType(t, tt.typ).Parse(tt.fields)
			require.Error(t, err)
			assert.True(t, IsMalformedTrace(err), "got %v", err)
		})
	}
}

func TestParse_LowercaseHexAccepted(t *testing.T) {
	typ := mustType(t, "USBDEVFS_REAPURB")
	v, err := typ.Parse([]string{"1", "2", "0", "0", "2", "2", "0", "abcd"})
	require.NoError(t, err)
	assert.Equal(t, "ABCD", typ.Encode(v)[7], "encode is always uppercase")
}

func TestEquivalent_URB(t *testing.T) {
	typ := mustType(t, "USBDEVFS_REAPURB")
	decode := func(u URB) Value {
		v, err := typ.Decode(urbArg(u))
		require.NoError(t, err)
		return v
	}

	base := URB{Type: 1, Endpoint: 129, Buffer: []byte("file1a\x00\x00"), BufferLength: 8, ActualLength: 6}
	a := decode(base)

	errs := base
	errs.ErrorCount = 7
	assert.True(t, typ.Equivalent(a, decode(errs)), "error_count is not identifying")

	stale := base
	stale.Buffer = []byte("file1aZZ")
	assert.True(t, typ.Equivalent(a, decode(stale)), "bytes past actual_length are ignored for IN")

	other := base
	other.Buffer = []byte("file1b\x00\x00")
	assert.False(t, typ.Equivalent(a, decode(other)))

	shorter := base
	shorter.ActualLength = 5
	assert.False(t, typ.Equivalent(a, decode(shorter)))

	status := base
	status.Status = -71
	assert.False(t, typ.Equivalent(a, decode(status)))

	out := URB{Type: 1, Endpoint: 2, Buffer: []byte("abcd"), BufferLength: 4, ActualLength: 2}
	outTail := out
	outTail.Buffer = []byte("abcX")
	assert.False(t, typ.Equivalent(decode(out), decode(outTail)), "OUT buffers compare in full")

	assert.False(t, typ.Equivalent(a, ConnectInfo{}))
}

func TestEquivalent_ConnectInfo(t *testing.T) {
	typ := mustType(t, "USBDEVFS_CONNECTINFO")
	assert.True(t, typ.Equivalent(ConnectInfo{DevNum: 11}, ConnectInfo{DevNum: 11}))
	assert.False(t, typ.Equivalent(ConnectInfo{DevNum: 11}, ConnectInfo{DevNum: 12}))
	assert.False(t, typ.Equivalent(ConnectInfo{DevNum: 11}, ConnectInfo{DevNum: 11, Slow: 1}))
}

func TestContinues(t *testing.T) {
	urb := mustType(t, "USBDEVFS_REAPURB")
	ndelay := mustType(t, "USBDEVFS_REAPURBNDELAY")
	ci := mustType(t, "USBDEVFS_CONNECTINFO")

	assert.True(t, urb.Continues(URB{Endpoint: 0x81}))
	assert.False(t, urb.Continues(URB{Endpoint: 0x01}))
	assert.False(t, ci.Continues(ConnectInfo{}))

	assert.True(t, urb.CanContinue(ndelay))
	assert.True(t, ndelay.CanContinue(urb))
	assert.False(t, urb.CanContinue(ci))
	assert.False(t, ci.CanContinue(urb))
	assert.False(t, urb.CanContinue(nil))
}

func TestNewRecord(t *testing.T) {
	rec, err := NewRecord(USBDEVFS_CONNECTINFO, &ConnectInfo{DevNum: 11})
	require.NoError(t, err)
	assert.Equal(t, "USBDEVFS_CONNECTINFO 11 0", rec.String())
	assert.False(t, rec.Continues())

	_, err = NewRecord(0xFFFF, &ConnectInfo{})
	assert.True(t, IsUnknownType(err))

	_, err = NewRecord(USBDEVFS_REAPURB, nil)
	assert.True(t, IsInvalidArgument(err))
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord("USBDEVFS_REAPURB", strings.Fields("1 129 0 0 10 4 0 74686973"))
	require.NoError(t, err)
	assert.True(t, rec.Continues())
	assert.Equal(t, "USBDEVFS_REAPURB 1 129 0 0 10 4 0 74686973", rec.String())

	_, err = ParseRecord("USBDEVFS_BOGUS", nil)
	assert.True(t, IsUnknownType(err))

	again, err := ParseRecord("USBDEVFS_REAPURB", rec.Fields())
	require.NoError(t, err)
	assert.True(t, rec.Equivalent(again))

	nd, err := ParseRecord("USBDEVFS_REAPURBNDELAY", rec.Fields())
	require.NoError(t, err)
	assert.False(t, rec.Equivalent(nd), "different families are never equivalent")
}

func TestRecord_Zero(t *testing.T) {
	var r Record
	assert.True(t, r.IsZero())
	assert.Equal(t, "<none>", r.String())
	assert.False(t, r.Equivalent(Record{}))
}

func ptr[T any](v T) *T { return &v }
