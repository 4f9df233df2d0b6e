package ioctl

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"
)

// EndpointIn is the direction bit of a USB endpoint address. Transfers on
// endpoints with this bit set move data from the device to the host.
const EndpointIn = 0x80

// MaxURBBuffer is the largest URB buffer accepted, the usbfs default
// memory limit.
const MaxURBBuffer = 16 << 20

// ConnectInfo mirrors struct usbdevfs_connectinfo.
type ConnectInfo struct {
	DevNum uint32
	Slow   uint8
}

// connectInfoSize is sizeof(struct usbdevfs_connectinfo) including padding.
const connectInfoSize = 8

func (ConnectInfo) kind() Kind { return KindConnectInfo }

func decodeConnectInfo(t *Type, raw any) (Value, error) {
	switch raw := raw.(type) {
	case nil:
		return nil, invalidArgument(t, "nil argument")
	case *ConnectInfo:
		if raw == nil {
			return nil, invalidArgument(t, "nil argument")
		}
		return *raw, nil
	case []byte:
		if len(raw) < connectInfoSize {
			return nil, invalidArgument(t, "payload is %d bytes, need %d", len(raw), connectInfoSize)
		}
		return ConnectInfo{
			DevNum: binary.NativeEndian.Uint32(raw[0:4]),
			Slow:   raw[4],
		}, nil
	}
	return nil, invalidArgument(t, "unsupported argument %T", raw)
}

func (c ConnectInfo) encode() []string {
	return []string{
		strconv.FormatUint(uint64(c.DevNum), 10),
		strconv.FormatUint(uint64(c.Slow), 10),
	}
}

func parseConnectInfo(t *Type, fields []string) (Value, error) {
	devnum, err := parseUint(t, "devnum", fields[0], 32)
	if err != nil {
		return nil, err
	}
	slow, err := parseUint(t, "slow", fields[1], 8)
	if err != nil {
		return nil, err
	}
	return ConnectInfo{DevNum: uint32(devnum), Slow: uint8(slow)}, nil
}

// Capabilities holds the USBDEVFS_CAP_* bitmask returned by
// USBDEVFS_GET_CAPABILITIES.
type Capabilities struct {
	Caps uint32
}

func (Capabilities) kind() Kind { return KindCapabilities }

func decodeCapabilities(t *Type, raw any) (Value, error) {
	switch raw := raw.(type) {
	case nil:
		return nil, invalidArgument(t, "nil argument")
	case *uint32:
		if raw == nil {
			return nil, invalidArgument(t, "nil argument")
		}
		return Capabilities{Caps: *raw}, nil
	case []byte:
		if len(raw) < 4 {
			return nil, invalidArgument(t, "payload is %d bytes, need 4", len(raw))
		}
		return Capabilities{Caps: binary.NativeEndian.Uint32(raw)}, nil
	}
	return nil, invalidArgument(t, "unsupported argument %T", raw)
}

func (c Capabilities) encode() []string {
	return []string{strconv.FormatUint(uint64(c.Caps), 10)}
}

func parseCapabilities(t *Type, fields []string) (Value, error) {
	caps, err := parseUint(t, "caps", fields[0], 32)
	if err != nil {
		return nil, err
	}
	return Capabilities{Caps: uint32(caps)}, nil
}

// URB mirrors the recorded subset of struct usbdevfs_urb.
//
// Buffer holds BufferLength bytes once decoded or parsed. For IN transfers
// only the first ActualLength bytes are meaningful.
type URB struct {
	Type         uint8
	Endpoint     uint8
	Status       int32
	Flags        uint32
	Buffer       []byte
	BufferLength int32
	ActualLength int32
	ErrorCount   int32
}

func (URB) kind() Kind { return KindURB }

// In reports whether u is a device-to-host transfer.
func (u URB) In() bool {
	return u.Endpoint&EndpointIn != 0
}

// Payload returns the recorded bytes: ActualLength bytes for IN transfers,
// BufferLength bytes for OUT transfers.
func (u URB) Payload() []byte {
	return u.Buffer[:u.payloadLen()]
}

func (u URB) payloadLen() int {
	if u.In() {
		return int(u.ActualLength)
	}
	return int(u.BufferLength)
}

func decodeURB(t *Type, raw any) (Value, error) {
	pp, ok := raw.(**URB)
	if !ok {
		if raw == nil {
			return nil, invalidArgument(t, "nil argument")
		}
		return nil, invalidArgument(t, "unsupported argument %T, want **URB", raw)
	}
	if pp == nil || *pp == nil {
		return nil, invalidArgument(t, "nil URB pointer")
	}
	u := **pp
	if err := checkURBLengths(t, u.BufferLength, u.ActualLength, invalidArgument); err != nil {
		return nil, err
	}
	if len(u.Buffer) < int(u.BufferLength) {
		return nil, invalidArgument(t, "buffer is %d bytes, buffer_length is %d", len(u.Buffer), u.BufferLength)
	}
	buf := make([]byte, u.BufferLength)
	copy(buf, u.Buffer)
	u.Buffer = buf
	return u, nil
}

func checkURBLengths(t *Type, bufferLength, actualLength int32, fail func(*Type, string, ...any) *Error) error {
	if bufferLength < 0 || bufferLength > MaxURBBuffer {
		return fail(t, "buffer_length %d out of range [0, %d]", bufferLength, MaxURBBuffer)
	}
	if actualLength < 0 || actualLength > bufferLength {
		return fail(t, "actual_length %d out of range [0, %d]", actualLength, bufferLength)
	}
	return nil
}

func (u URB) encode() []string {
	return []string{
		strconv.FormatUint(uint64(u.Type), 10),
		strconv.FormatUint(uint64(u.Endpoint), 10),
		strconv.FormatInt(int64(u.Status), 10),
		strconv.FormatUint(uint64(u.Flags), 10),
		strconv.FormatInt(int64(u.BufferLength), 10),
		strconv.FormatInt(int64(u.ActualLength), 10),
		strconv.FormatInt(int64(u.ErrorCount), 10),
		strings.ToUpper(hex.EncodeToString(u.Payload())),
	}
}

func parseURB(t *Type, fields []string) (Value, error) {
	var u URB
	typ, err := parseUint(t, "type", fields[0], 8)
	if err != nil {
		return nil, err
	}
	endpoint, err := parseUint(t, "endpoint", fields[1], 8)
	if err != nil {
		return nil, err
	}
	status, err := parseInt(t, "status", fields[2])
	if err != nil {
		return nil, err
	}
	flags, err := parseUint(t, "flags", fields[3], 32)
	if err != nil {
		return nil, err
	}
	bufferLength, err := parseInt(t, "buffer_length", fields[4])
	if err != nil {
		return nil, err
	}
	actualLength, err := parseInt(t, "actual_length", fields[5])
	if err != nil {
		return nil, err
	}
	errorCount, err := parseInt(t, "error_count", fields[6])
	if err != nil {
		return nil, err
	}
	if err := checkURBLengths(t, bufferLength, actualLength, malformed); err != nil {
		return nil, err
	}

	u.Type = uint8(typ)
	u.Endpoint = uint8(endpoint)
	u.Status = status
	u.Flags = uint32(flags)
	u.BufferLength = bufferLength
	u.ActualLength = actualLength
	u.ErrorCount = errorCount

	payload, err := hex.DecodeString(fields[7])
	if err != nil {
		return nil, malformed(t, "invalid hex buffer: %v", err)
	}
	if len(payload) != u.payloadLen() {
		return nil, malformed(t, "hex buffer holds %d bytes, expected %d", len(payload), u.payloadLen())
	}
	u.Buffer = make([]byte, u.BufferLength)
	copy(u.Buffer, payload)
	return u, nil
}

func (u URB) equivalent(o URB) bool {
	if u.Type != o.Type || u.Endpoint != o.Endpoint || u.Status != o.Status ||
		u.Flags != o.Flags || u.BufferLength != o.BufferLength || u.ActualLength != o.ActualLength {
		return false
	}
	return bytes.Equal(u.Payload(), o.Payload())
}

func parseUint(t *Type, field, s string, bits int) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, malformed(t, "field %s: invalid value %q", field, s)
	}
	return n, nil
}

func parseInt(t *Type, field, s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, malformed(t, "field %s: invalid value %q", field, s)
	}
	return int32(n), nil
}
