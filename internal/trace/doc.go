// Package trace reads and writes the text form of a call tree.
//
// One line per node, in preorder:
//
//	<depth spaces><IOCTL NAME> <field> <field> ... [<HEX BUFFER>]
//
// Depth is the number of parent hops, one space each. Scalar fields are
// decimal in the family's fixed order; a trailing buffer is uppercase hex
// with no separators. Fields are separated by exactly one space, so an empty
// buffer leaves a trailing space on its line.
//
//	USBDEVFS_CONNECTINFO 11 0
//	USBDEVFS_REAPURB 1 2 0 0 4 4 0 77686174
//	 USBDEVFS_REAPURB 1 129 0 0 10 4 0 74686973
//	  USBDEVFS_REAPURB 1 129 0 0 10 7 0 616E6474686174
//
// Write(Read(text)) reproduces text exactly for any text Write produced.
// Reading applies no deduplication. A trace that fails to parse yields no
// tree at all.
package trace
