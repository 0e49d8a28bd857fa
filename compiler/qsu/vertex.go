package qsu

import (
	"fmt"

	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/pkg/field"
)

// Vertex is a QScript operator in graph form: child operators are named
// by symbol instead of nested, so duplicate subtrees share vertices.
// Branch sub-plans of unions, subsets, and joins stay in tree form rooted
// at qscript.Hole, as they describe per-row plans rather than graph edges.
//
// The provisional vertices (UnaryV, GroupByV, DistinctV, AutoJoinV,
// MultiLeftShiftV) exist only between the passes that introduce and
// eliminate them; none survives to graduation.
type Vertex interface {
	vertexNode()
}

type (
	ReadV struct {
		Path field.Path
	}
	ShiftedReadV struct {
		Path     field.Path
		IDStatus qscript.IDStatus
	}
	UnreferencedV struct{}
	DeadEndV      struct{}
	MapV          struct {
		Src names.Symbol
		Fn  mapfunc.Expr
	}
	// UnaryV is a single-argument mapping application not yet fused into
	// a MapV chain.
	UnaryV struct {
		Src names.Symbol
		Fn  mapfunc.Expr
	}
	LeftShiftV struct {
		Src      names.Symbol
		Struct   mapfunc.Expr
		IDStatus qscript.IDStatus
		Rot      qscript.Rotation
		Repair   mapfunc.Expr
	}
	// MultiLeftShiftV unnests several values from each source row at
	// once.  Repair leaves are ShiftSource and ShiftValue.
	MultiLeftShiftV struct {
		Src    names.Symbol
		Shifts []qscript.Shift
		Repair mapfunc.Expr
	}
	ReduceV struct {
		Src      names.Symbol
		Buckets  []mapfunc.Expr
		Reducers []qscript.ReduceFunc
		Repair   mapfunc.Expr
	}
	SortV struct {
		Src     names.Symbol
		Buckets []mapfunc.Expr
		Keys    []qscript.SortKey
	}
	FilterV struct {
		Src       names.Symbol
		Predicate mapfunc.Expr
	}
	// GroupByV marks its source as grouped by Keys.  ReifyBuckets folds
	// the keys into the downstream ReduceV and SortV buckets.
	GroupByV struct {
		Src  names.Symbol
		Keys []mapfunc.Expr
	}
	// DistinctV keeps one row per distinct value of Expr.
	DistinctV struct {
		Src  names.Symbol
		Expr mapfunc.Expr
	}
	// AutoJoinV is an implicit n-way join of branches that a pointful
	// logical plan referenced from one expression.  Combine leaves are
	// SideRef.
	AutoJoinV struct {
		Sources []names.Symbol
		Combine mapfunc.Expr
	}
	UnionV struct {
		Src   names.Symbol
		Left  qscript.Node
		Right qscript.Node
	}
	SubsetV struct {
		Src   names.Symbol
		From  qscript.Node
		Op    qscript.SubsetOp
		Count qscript.Node
	}
	ThetaJoinV struct {
		Src     names.Symbol
		Left    qscript.Node
		Right   qscript.Node
		On      mapfunc.Expr
		Join    qscript.JoinType
		Combine mapfunc.Expr
	}
	EquiJoinV struct {
		Src     names.Symbol
		Left    qscript.Node
		Right   qscript.Node
		Keys    []qscript.JoinKey
		Join    qscript.JoinType
		Combine mapfunc.Expr
	}
)

func (*ReadV) vertexNode()           {}
func (*ShiftedReadV) vertexNode()    {}
func (*UnreferencedV) vertexNode()   {}
func (*DeadEndV) vertexNode()        {}
func (*MapV) vertexNode()            {}
func (*UnaryV) vertexNode()          {}
func (*LeftShiftV) vertexNode()      {}
func (*MultiLeftShiftV) vertexNode() {}
func (*ReduceV) vertexNode()         {}
func (*SortV) vertexNode()           {}
func (*FilterV) vertexNode()         {}
func (*GroupByV) vertexNode()        {}
func (*DistinctV) vertexNode()       {}
func (*AutoJoinV) vertexNode()       {}
func (*UnionV) vertexNode()          {}
func (*SubsetV) vertexNode()         {}
func (*ThetaJoinV) vertexNode()      {}
func (*EquiJoinV) vertexNode()       {}

// Sources returns the symbols v references, in positional order.
func Sources(v Vertex) []names.Symbol {
	switch v := v.(type) {
	case *MapV:
		return []names.Symbol{v.Src}
	case *UnaryV:
		return []names.Symbol{v.Src}
	case *LeftShiftV:
		return []names.Symbol{v.Src}
	case *MultiLeftShiftV:
		return []names.Symbol{v.Src}
	case *ReduceV:
		return []names.Symbol{v.Src}
	case *SortV:
		return []names.Symbol{v.Src}
	case *FilterV:
		return []names.Symbol{v.Src}
	case *GroupByV:
		return []names.Symbol{v.Src}
	case *DistinctV:
		return []names.Symbol{v.Src}
	case *AutoJoinV:
		return v.Sources
	case *UnionV:
		return []names.Symbol{v.Src}
	case *SubsetV:
		return []names.Symbol{v.Src}
	case *ThetaJoinV:
		return []names.Symbol{v.Src}
	case *EquiJoinV:
		return []names.Symbol{v.Src}
	case *ReadV, *ShiftedReadV, *UnreferencedV, *DeadEndV:
		return nil
	default:
		panic(fmt.Sprintf("qsu: unknown vertex type %T", v))
	}
}

// Exprs returns the row functions v carries, in positional order.
// Branch sub-plans are not descended into.
func Exprs(v Vertex) []mapfunc.Expr {
	switch v := v.(type) {
	case *MapV:
		return []mapfunc.Expr{v.Fn}
	case *UnaryV:
		return []mapfunc.Expr{v.Fn}
	case *LeftShiftV:
		return []mapfunc.Expr{v.Struct, v.Repair}
	case *MultiLeftShiftV:
		out := make([]mapfunc.Expr, 0, len(v.Shifts)+1)
		for _, s := range v.Shifts {
			out = append(out, s.Struct)
		}
		return append(out, v.Repair)
	case *ReduceV:
		out := make([]mapfunc.Expr, 0, len(v.Buckets)+len(v.Reducers)+1)
		out = append(out, v.Buckets...)
		for _, r := range v.Reducers {
			out = append(out, r.Expr)
		}
		return append(out, v.Repair)
	case *SortV:
		out := make([]mapfunc.Expr, 0, len(v.Buckets)+len(v.Keys))
		out = append(out, v.Buckets...)
		for _, key := range v.Keys {
			out = append(out, key.Expr)
		}
		return out
	case *FilterV:
		return []mapfunc.Expr{v.Predicate}
	case *GroupByV:
		return v.Keys
	case *DistinctV:
		return []mapfunc.Expr{v.Expr}
	case *AutoJoinV:
		return []mapfunc.Expr{v.Combine}
	case *ThetaJoinV:
		return []mapfunc.Expr{v.On, v.Combine}
	case *EquiJoinV:
		out := make([]mapfunc.Expr, 0, 2*len(v.Keys)+1)
		for _, key := range v.Keys {
			out = append(out, key.Left, key.Right)
		}
		return append(out, v.Combine)
	}
	return nil
}

// MapSources returns a copy of v with every referenced symbol passed
// through f.  Non-symbol fields are shared, not copied.
func MapSources(v Vertex, f func(names.Symbol) names.Symbol) Vertex {
	switch v := v.(type) {
	case *MapV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *UnaryV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *LeftShiftV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *MultiLeftShiftV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *ReduceV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *SortV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *FilterV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *GroupByV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *DistinctV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *AutoJoinV:
		out := *v
		out.Sources = make([]names.Symbol, 0, len(v.Sources))
		for _, src := range v.Sources {
			out.Sources = append(out.Sources, f(src))
		}
		return &out
	case *UnionV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *SubsetV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *ThetaJoinV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *EquiJoinV:
		out := *v
		out.Src = f(v.Src)
		return &out
	case *ReadV, *ShiftedReadV, *UnreferencedV, *DeadEndV:
		return v
	default:
		panic(fmt.Sprintf("qsu: unknown vertex type %T", v))
	}
}
