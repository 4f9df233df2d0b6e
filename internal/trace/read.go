package trace

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/mockdev/internal/calltree"
	"github.com/roach88/mockdev/internal/ioctl"
)

// maxLineLen fits the largest URB buffer in hex plus its header.
const maxLineLen = 2*ioctl.MaxURBBuffer + 4096

// Read parses a trace. The caller owns r.
//
// A line at depth d+1 following a line at depth d attaches beneath that
// line's node, after any children it already has. A line at depth d
// following a line at depth >= d becomes the next sibling of the most recent
// node at depth d.
//
// Errors are MALFORMED_TRACE (see ioctl.IsMalformedTrace) carrying the line
// number, except failures of r itself, which are returned wrapped.
func Read(r io.Reader) (*calltree.Tree, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	tree := calltree.New()
	// path[d] is the most recent node at depth d.
	var path []calltree.NodeID
	line := 0

	for sc.Scan() {
		line++
		text := sc.Text()
		body := strings.TrimLeft(text, indentUnit)
		depth := len(text) - len(body)

		if body == "" {
			return nil, malformedf(line, "", "empty line")
		}
		if depth > len(path) {
			return nil, malformedf(line, "", "indentation %d exceeds maximum depth %d", depth, len(path))
		}

		parts := strings.Split(body, " ")
		name := parts[0]
		rec, err := ioctl.ParseRecord(name, parts[1:])
		if err != nil {
			if ioctl.IsUnknownType(err) {
				return nil, malformedf(line, name, "unknown ioctl %q", name)
			}
			return nil, ioctl.NewMalformedTraceError(line, name, err)
		}

		parent := calltree.NoNode
		if depth > 0 {
			parent = path[depth-1]
		}
		id := tree.Attach(parent, rec)
		path = append(path[:depth], id)
	}

	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, malformedf(line+1, "", "line exceeds %d bytes", maxLineLen)
		}
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return tree, nil
}

// Unmarshal parses a trace held in memory.
func Unmarshal(data []byte) (*calltree.Tree, error) {
	return Read(bytes.NewReader(data))
}

func malformedf(line int, typeName, format string, args ...any) *ioctl.Error {
	return &ioctl.Error{
		Code:    ioctl.ErrCodeMalformedTrace,
		Message: fmt.Sprintf(format, args...),
		Type:    typeName,
		Line:    line,
	}
}
