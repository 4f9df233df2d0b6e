package scenario

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/mockdev/internal/ioctl"
)

// Payload returns the bytes a call carries: the NFC form of Data, or the
// decoded Hex. It returns nil when neither is set.
func (c Call) Payload() ([]byte, error) {
	switch {
	case c.Data != nil:
		return []byte(norm.NFC.String(*c.Data)), nil
	case c.Hex != nil:
		b, err := hex.DecodeString(*c.Hex)
		if err != nil {
			return nil, fmt.Errorf("invalid hex: %w", err)
		}
		return b, nil
	}
	return nil, nil
}

// Record builds the ioctl record the call describes.
func (c Call) Record() (ioctl.Record, error) {
	if err := validateCall(c); err != nil {
		return ioctl.Record{}, err
	}
	t, _ := ioctl.LookupByName(c.Ioctl)

	payload, err := c.Payload()
	if err != nil {
		return ioctl.Record{}, err
	}

	values := make(map[string]int64, len(c.Fields)+2)
	for k, v := range c.Fields {
		values[k] = v
	}
	bufferField, hasBuffer := t.BufferField()
	if hasBuffer && payload != nil {
		if _, ok := values[bufferField]; !ok {
			values[bufferField] = int64(len(payload))
		}
		if _, ok := values["actual_length"]; !ok {
			values["actual_length"] = int64(len(payload))
		}
	}

	fields := make([]string, 0, t.FieldCount())
	for _, name := range t.Fields() {
		fields = append(fields, strconv.FormatInt(values[name], 10))
	}
	if hasBuffer {
		fields = append(fields, strings.ToUpper(hex.EncodeToString(payload)))
	}

	rec, err := ioctl.ParseRecord(t.Name(), fields)
	if err != nil {
		return ioctl.Record{}, err
	}
	return rec, nil
}
