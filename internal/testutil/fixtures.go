package testutil

import (
	"github.com/roach88/mockdev/internal/ioctl"
)

// Bulk endpoints of the fixture device.
const (
	EndpointOut = 2
	EndpointIn  = 129
)

// ConnectInfo returns a decoded USBDEVFS_CONNECTINFO record.
func ConnectInfo(devnum uint32, slow uint8) ioctl.Record {
	return mustRecord(ioctl.USBDEVFS_CONNECTINFO, &ioctl.ConnectInfo{DevNum: devnum, Slow: slow})
}

// Submit returns a reaped bulk OUT URB carrying data.
func Submit(data string) ioctl.Record {
	u := &ioctl.URB{
		Type:         1,
		Endpoint:     EndpointOut,
		Buffer:       []byte(data),
		BufferLength: int32(len(data)),
		ActualLength: int32(len(data)),
	}
	return mustRecord(ioctl.USBDEVFS_REAPURB, &u)
}

// Response returns a reaped bulk IN URB with a bufferLength-byte buffer of
// which the first len(data) bytes were filled by the device.
func Response(data string, bufferLength int) ioctl.Record {
	buf := make([]byte, bufferLength)
	copy(buf, data)
	u := &ioctl.URB{
		Type:         1,
		Endpoint:     EndpointIn,
		Buffer:       buf,
		BufferLength: int32(bufferLength),
		ActualLength: int32(len(data)),
	}
	return mustRecord(ioctl.USBDEVFS_REAPURB, &u)
}

// Named records of the worked recording.
var (
	CI   = ConnectInfo(11, 0)
	CI2  = ConnectInfo(12, 0)
	Out1 = Submit("what")
	In1a = Response("this", 10)
	In1b = Response("andthat", 10)
	Out2 = Submit("readfile")
	In2a = Response("file1a", 15)
	In2b = Response("file1bb", 15)
	In2c = Response("file1ccc", 15)
	In3  = Response("file2", 15)
)

// WorkedRecording returns the calls of the worked recording in observation
// order. CI and Out2 are each observed twice; CI2 interrupts the IN2 chain.
func WorkedRecording() []ioctl.Record {
	return []ioctl.Record{
		CI, Out1, In1a, In1b, CI, Out2, In2a, In2b, CI2, In2c, Out2, In3,
	}
}

// WorkedPreorder is the preorder of the tree built from WorkedRecording.
func WorkedPreorder() []ioctl.Record {
	return []ioctl.Record{
		CI, Out1, In1a, In1b, Out2, In2a, In2b, In2c, In3, CI2,
	}
}

// WorkedTrace is the serialized form of the tree built from WorkedRecording.
const WorkedTrace = "USBDEVFS_CONNECTINFO 11 0\n" +
	"USBDEVFS_REAPURB 1 2 0 0 4 4 0 77686174\n" +
	" USBDEVFS_REAPURB 1 129 0 0 10 4 0 74686973\n" +
	"  USBDEVFS_REAPURB 1 129 0 0 10 7 0 616E6474686174\n" +
	"USBDEVFS_REAPURB 1 2 0 0 8 8 0 7265616466696C65\n" +
	" USBDEVFS_REAPURB 1 129 0 0 15 6 0 66696C653161\n" +
	"  USBDEVFS_REAPURB 1 129 0 0 15 7 0 66696C65316262\n" +
	"   USBDEVFS_REAPURB 1 129 0 0 15 8 0 66696C6531636363\n" +
	" USBDEVFS_REAPURB 1 129 0 0 15 5 0 66696C6532\n" +
	"USBDEVFS_CONNECTINFO 12 0\n"

func mustRecord(id uint32, raw any) ioctl.Record {
	rec, err := ioctl.NewRecord(id, raw)
	if err != nil {
		panic("testutil: " + err.Error())
	}
	return rec
}
