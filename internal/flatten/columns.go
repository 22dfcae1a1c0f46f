// Computes the fixed column set a table needs to hold a batch of flattened rows.

package flatten

import (
	"slices"
	"strconv"
	"strings"
)

// columnNode is one segment of a compound column name.
type columnNode struct {
	children map[string]*columnNode
}

func (n *columnNode) child(seg string) *columnNode {
	if n.children == nil {
		n.children = make(map[string]*columnNode)
	}
	c := n.children[seg]
	if c == nil {
		c = &columnNode{}
		n.children[seg] = c
	}
	return c
}

// ReconcileColumns expands fieldNames into the column set needed to write
// every row of the batch.
//
// Each base field name that appears as the prefix of compound keys is
// replaced by the full run of its columns. Indexed segments expand to
// base::0 … base::max, max being the largest index seen anywhere in the
// batch, so rows holding shorter lists leave the extra columns blank. Named
// segments follow in lexical order. Field names never seen flattened are kept
// as is and keys outside fieldNames are ignored.
//
// The returned slice is newly allocated.
func ReconcileColumns(fieldNames []string, rows []Row, sep string) []string {
	roots := make(map[string]*columnNode, len(fieldNames))
	for _, name := range fieldNames {
		roots[name] = &columnNode{}
	}
	for _, row := range rows {
		for k := range row {
			parts := strings.Split(k, sep)
			n := roots[parts[0]]
			if n == nil {
				continue
			}
			for _, p := range parts[1:] {
				n = n.child(p)
			}
		}
	}
	out := make([]string, 0, len(fieldNames))
	for _, name := range fieldNames {
		out = roots[name].appendColumns(out, name, sep)
	}
	return out
}

func (n *columnNode) appendColumns(out []string, prefix, sep string) []string {
	if n == nil || len(n.children) == 0 {
		return append(out, prefix)
	}
	maxIndex := -1
	var named []string
	for seg := range n.children {
		if i, ok := index(seg); ok && strconv.Itoa(i) == seg {
			maxIndex = max(maxIndex, i)
		} else {
			named = append(named, seg)
		}
	}
	for i := 0; i <= maxIndex; i++ {
		// Indexes missing from every row still get a column.
		out = n.children[strconv.Itoa(i)].appendColumns(out, prefix+sep+strconv.Itoa(i), sep)
	}
	slices.Sort(named)
	for _, seg := range named {
		out = n.children[seg].appendColumns(out, prefix+sep+seg, sep)
	}
	return out
}
