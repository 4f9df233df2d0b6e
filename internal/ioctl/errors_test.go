package ioctl

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "code only",
			err:  &Error{Code: ErrCodeUnknownType, Message: "no ioctl"},
			want: "UNKNOWN_TYPE: no ioctl",
		},
		{
			name: "with type",
			err:  &Error{Code: ErrCodeInvalidArgument, Message: "nil argument", Type: "USBDEVFS_REAPURB"},
			want: "INVALID_ARGUMENT: nil argument (type=USBDEVFS_REAPURB)",
		},
		{
			name: "with line",
			err:  &Error{Code: ErrCodeMalformedTrace, Message: "bad indent", Line: 3},
			want: "MALFORMED_TRACE: line 3: bad indent",
		},
		{
			name: "with line, type and cause",
			err:  &Error{Code: ErrCodeMalformedTrace, Message: "bad field", Type: "X", Line: 2, Err: errors.New("boom")},
			want: "MALFORMED_TRACE: line 2: bad field: boom (type=X)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_IsHelpersSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("recording: %w", NewUnknownIDError(0x1234))
	assert.True(t, IsUnknownType(err))
	assert.False(t, IsInvalidArgument(err))
	assert.False(t, IsMalformedTrace(err))
	assert.False(t, IsMalformedTrace(errors.New("plain")))
	assert.Contains(t, err.Error(), "0x1234")
}

func TestNewMalformedTraceError_AddsPosition(t *testing.T) {
	typ, _ := LookupByName("USBDEVFS_CONNECTINFO")
	_, inner := typ.Parse([]string{"x", "0"})

	err := NewMalformedTraceError(7, "", inner)
	assert.True(t, IsMalformedTrace(err))
	assert.Equal(t, 7, err.Line)
	assert.Equal(t, "USBDEVFS_CONNECTINFO", err.Type)
	assert.Contains(t, err.Error(), `field devnum: invalid value "x"`)

	cause := errors.New("io failure")
	wrapped := NewMalformedTraceError(1, "", cause)
	assert.ErrorIs(t, wrapped, cause)
}
