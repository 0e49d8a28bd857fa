package qsu

import (
	"fmt"
	"strings"

	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/qscript"
)

// Canon renders the graph one vertex per line in post-order from the
// root, so sources print before their consumers and output is stable
// across runs with the same symbol allocation order.
func (g *Graph) Canon() string {
	order, err := g.Postorder()
	if err != nil {
		return fmt.Sprintf("!invalid graph: %s", err)
	}
	var b strings.Builder
	for _, sym := range order {
		fmt.Fprintf(&b, "%s := %s\n", sym, CanonVertex(g.Vertices[sym]))
	}
	fmt.Fprintf(&b, "root %s\n", g.Root)
	return b.String()
}

func CanonVertex(v Vertex) string {
	switch v := v.(type) {
	case *ReadV:
		return fmt.Sprintf("read %s", v.Path)
	case *ShiftedReadV:
		return fmt.Sprintf("shifted_read %s %s", v.Path, v.IDStatus)
	case *UnreferencedV:
		return "unreferenced"
	case *DeadEndV:
		return "root"
	case *MapV:
		return fmt.Sprintf("map(%s, %s)", v.Src, mapfunc.Canon(v.Fn))
	case *UnaryV:
		return fmt.Sprintf("unary(%s, %s)", v.Src, mapfunc.Canon(v.Fn))
	case *LeftShiftV:
		return fmt.Sprintf("left_shift(%s, %s, %s, %s, repair %s)",
			v.Src, mapfunc.Canon(v.Struct), v.IDStatus, v.Rot, mapfunc.Canon(v.Repair))
	case *MultiLeftShiftV:
		var shifts []string
		for _, s := range v.Shifts {
			shifts = append(shifts, fmt.Sprintf("(%s, %s, %s)", mapfunc.Canon(s.Struct), s.IDStatus, s.Rot))
		}
		return fmt.Sprintf("multi_left_shift(%s, [%s], repair %s)",
			v.Src, strings.Join(shifts, " "), mapfunc.Canon(v.Repair))
	case *ReduceV:
		var reducers []string
		for _, r := range v.Reducers {
			reducers = append(reducers, fmt.Sprintf("%s(%s)", r.Op, mapfunc.Canon(r.Expr)))
		}
		return fmt.Sprintf("reduce(%s, by %s, [%s], repair %s)",
			v.Src, canonExprs(v.Buckets), strings.Join(reducers, " "), mapfunc.Canon(v.Repair))
	case *SortV:
		var keys []string
		for _, key := range v.Keys {
			keys = append(keys, fmt.Sprintf("%s %s", mapfunc.Canon(key.Expr), key.Order))
		}
		return fmt.Sprintf("sort(%s, by %s, %s)", v.Src, canonExprs(v.Buckets), strings.Join(keys, ","))
	case *FilterV:
		return fmt.Sprintf("where(%s, %s)", v.Src, mapfunc.Canon(v.Predicate))
	case *GroupByV:
		return fmt.Sprintf("group_by(%s, %s)", v.Src, canonExprs(v.Keys))
	case *DistinctV:
		return fmt.Sprintf("distinct(%s, %s)", v.Src, mapfunc.Canon(v.Expr))
	case *AutoJoinV:
		srcs := make([]string, 0, len(v.Sources))
		for _, src := range v.Sources {
			srcs = append(srcs, string(src))
		}
		return fmt.Sprintf("auto_join([%s], %s)", strings.Join(srcs, ","), mapfunc.Canon(v.Combine))
	case *UnionV:
		return fmt.Sprintf("union(%s, (%s), (%s))", v.Src, qscript.Canon(v.Left), qscript.Canon(v.Right))
	case *SubsetV:
		return fmt.Sprintf("%s(%s, (%s), count (%s))", v.Op, v.Src, qscript.Canon(v.From), qscript.Canon(v.Count))
	case *ThetaJoinV:
		return fmt.Sprintf("theta_join(%s, %s, (%s), (%s), on %s, combine %s)",
			v.Src, v.Join, qscript.Canon(v.Left), qscript.Canon(v.Right),
			mapfunc.Canon(v.On), mapfunc.Canon(v.Combine))
	case *EquiJoinV:
		var keys []string
		for _, key := range v.Keys {
			keys = append(keys, fmt.Sprintf("%s=%s", mapfunc.Canon(key.Left), mapfunc.Canon(key.Right)))
		}
		return fmt.Sprintf("equi_join(%s, %s, (%s), (%s), keys %s, combine %s)",
			v.Src, v.Join, qscript.Canon(v.Left), qscript.Canon(v.Right),
			strings.Join(keys, ","), mapfunc.Canon(v.Combine))
	default:
		return fmt.Sprintf("!unknown(%T)", v)
	}
}

func canonExprs(exprs []mapfunc.Expr) string {
	if len(exprs) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, mapfunc.Canon(e))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
