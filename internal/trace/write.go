package trace

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/roach88/mockdev/internal/calltree"
)

const indentUnit = " "

// Write serializes tree to w in preorder. The caller owns w.
func Write(w io.Writer, tree *calltree.Tree) error {
	bw := bufio.NewWriter(w)
	for id := range tree.All() {
		rec := tree.Record(id)
		bw.WriteString(strings.Repeat(indentUnit, tree.Depth(id)))
		bw.WriteString(rec.Type.Name())
		for _, f := range rec.Fields() {
			bw.WriteByte(' ')
			bw.WriteString(f)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Marshal returns the serialized form of tree.
func Marshal(tree *calltree.Tree) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, tree) // bytes.Buffer writes do not fail
	return buf.Bytes()
}
