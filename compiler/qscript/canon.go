package qscript

import (
	"fmt"
	"strings"

	"github.com/romanowski/quasar/compiler/mapfunc"
)

// Canon renders a tree as a deterministic pipeline, sources first, one
// operator per pipe stage.  Branch sub-plans render parenthesized.
func Canon(node Node) string {
	var b strings.Builder
	canon(&b, node)
	return b.String()
}

func canon(b *strings.Builder, node Node) {
	switch node := node.(type) {
	case *Hole:
		b.WriteString("hole")
	case *Unreferenced:
		b.WriteString("unreferenced")
	case *DeadEnd:
		b.WriteString("root")
	case *Read:
		fmt.Fprintf(b, "read %s", node.Path)
	case *ShiftedRead:
		fmt.Fprintf(b, "shifted_read %s %s", node.Path, node.IDStatus)
	case *Map:
		canon(b, node.Src)
		fmt.Fprintf(b, " | map %s", mapfunc.Canon(node.Fn))
	case *LeftShift:
		canon(b, node.Src)
		fmt.Fprintf(b, " | left_shift %s %s %s repair %s",
			mapfunc.Canon(node.Struct), node.IDStatus, node.Shift, mapfunc.Canon(node.Repair))
	case *Reduce:
		canon(b, node.Src)
		b.WriteString(" | reduce")
		canonBuckets(b, node.Buckets)
		for _, r := range node.Reducers {
			fmt.Fprintf(b, " %s(%s)", r.Op, mapfunc.Canon(r.Expr))
		}
		fmt.Fprintf(b, " repair %s", mapfunc.Canon(node.Repair))
	case *Sort:
		canon(b, node.Src)
		b.WriteString(" | sort")
		canonBuckets(b, node.Buckets)
		for _, key := range node.Keys {
			fmt.Fprintf(b, " %s %s", mapfunc.Canon(key.Expr), key.Order)
		}
	case *Filter:
		canon(b, node.Src)
		fmt.Fprintf(b, " | where %s", mapfunc.Canon(node.Predicate))
	case *Union:
		canon(b, node.Src)
		fmt.Fprintf(b, " | union (%s) (%s)", Canon(node.Left), Canon(node.Right))
	case *Subset:
		canon(b, node.Src)
		fmt.Fprintf(b, " | %s (%s) count (%s)", node.Op, Canon(node.From), Canon(node.Count))
	case *ThetaJoin:
		canon(b, node.Src)
		fmt.Fprintf(b, " | theta_join %s (%s) (%s) on %s combine %s",
			node.Join, Canon(node.Left), Canon(node.Right),
			mapfunc.Canon(node.On), mapfunc.Canon(node.Combine))
	case *EquiJoin:
		canon(b, node.Src)
		fmt.Fprintf(b, " | equi_join %s (%s) (%s) keys", node.Join, Canon(node.Left), Canon(node.Right))
		for _, key := range node.Keys {
			fmt.Fprintf(b, " %s=%s", mapfunc.Canon(key.Left), mapfunc.Canon(key.Right))
		}
		fmt.Fprintf(b, " combine %s", mapfunc.Canon(node.Combine))
	default:
		fmt.Fprintf(b, "!unknown(%T)", node)
	}
}

func canonBuckets(b *strings.Builder, buckets []mapfunc.Expr) {
	if len(buckets) == 0 {
		return
	}
	b.WriteString(" by")
	for i, bucket := range buckets {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, " %s", mapfunc.Canon(bucket))
	}
}
