package ioctl

import "sync"

// Linux _IOC encoding (asm-generic layout, used by x86 and arm).
const (
	iocWrite = 1
	iocRead  = 2

	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30
)

// usbfs ioctl request numbers on 64-bit hosts.
const (
	USBDEVFS_CONNECTINFO      uint32 = iocWrite<<iocDirShift | 8<<iocSizeShift | 'U'<<iocTypeShift | 17<<iocNRShift
	USBDEVFS_GET_CAPABILITIES uint32 = iocRead<<iocDirShift | 4<<iocSizeShift | 'U'<<iocTypeShift | 26<<iocNRShift
	USBDEVFS_REAPURB          uint32 = iocWrite<<iocDirShift | 8<<iocSizeShift | 'U'<<iocTypeShift | 12<<iocNRShift
	USBDEVFS_REAPURBNDELAY    uint32 = iocWrite<<iocDirShift | 8<<iocSizeShift | 'U'<<iocTypeShift | 13<<iocNRShift
)

var urbFields = []string{
	"type", "endpoint", "status", "flags",
	"buffer_length", "actual_length", "error_count",
}

// catalog lists every supported family in registration order.
var catalog = []*Type{
	{
		name:   "USBDEVFS_CONNECTINFO",
		id:     USBDEVFS_CONNECTINFO,
		kind:   KindConnectInfo,
		fields: []string{"devnum", "slow"},
	},
	{
		name:   "USBDEVFS_GET_CAPABILITIES",
		id:     USBDEVFS_GET_CAPABILITIES,
		kind:   KindCapabilities,
		fields: []string{"caps"},
	},
	{
		name:        "USBDEVFS_REAPURB",
		id:          USBDEVFS_REAPURB,
		kind:        KindURB,
		fields:      urbFields,
		bufferField: "buffer_length",
	},
	{
		name:        "USBDEVFS_REAPURBNDELAY",
		id:          USBDEVFS_REAPURBNDELAY,
		kind:        KindURB,
		fields:      urbFields,
		bufferField: "buffer_length",
	},
}

type registryIndex struct {
	byID   map[uint32]*Type
	byName map[string]*Type
}

var index = sync.OnceValue(func() registryIndex {
	idx := registryIndex{
		byID:   make(map[uint32]*Type, len(catalog)),
		byName: make(map[string]*Type, len(catalog)),
	}
	for _, t := range catalog {
		idx.byID[t.id] = t
		idx.byName[t.name] = t
	}
	return idx
})

// LookupByID returns the family registered for an ioctl request number.
func LookupByID(id uint32) (*Type, bool) {
	t, ok := index().byID[id]
	return t, ok
}

// LookupByName returns the family registered under name. Names are matched
// exactly.
func LookupByName(name string) (*Type, bool) {
	t, ok := index().byName[name]
	return t, ok
}

// Types returns all registered families in registration order.
func Types() []*Type {
	out := make([]*Type, len(catalog))
	copy(out, catalog)
	return out
}
