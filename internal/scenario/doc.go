// Package scenario runs recording scenarios described in YAML.
//
// A scenario lists ioctl calls as a traced program would issue them. Run
// feeds them to a session.Recorder and compares the resulting tree against
// the scenario's expectations; RunWithGolden additionally compares the
// serialized trace against testdata/golden/<name>.golden.
//
// Scenario files are checked in two layers: the document shape against an
// embedded CUE schema, then each call against the ioctl registry.
//
//	name: usb_readfile
//	device: /dev/bus/usb/001/011
//	calls:
//	  - ioctl: USBDEVFS_CONNECTINFO
//	    fields: {devnum: 11, slow: 0}
//	  - ioctl: USBDEVFS_REAPURB
//	    fields: {type: 1, endpoint: 2}
//	    data: what
//	expect:
//	  nodes: 2
//
// Text payloads (data) are NFC-normalized and UTF-8 encoded. Binary
// payloads use hex. When buffer_length or actual_length is omitted on a call
// with a payload, both default to the payload length.
package scenario
