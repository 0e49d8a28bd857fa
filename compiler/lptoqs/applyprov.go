package lptoqs

import (
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/planerr"
	"github.com/romanowski/quasar/compiler/provenance"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/compiler/qsu"
)

// ApplyProvenance computes the initial provenance assignment for every
// reachable vertex, establishing the invariant that later passes must
// maintain: the auth domain covers the reachable graph.
func ApplyProvenance(ctx *Context, g *qsu.Graph) error {
	ctx.Auth = provenance.NewAuth()
	return computeProvenance(ctx, g)
}

// computeProvenance walks the reachable graph bottom-up and records each
// vertex's provenance.  It is idempotent, and the driver re-runs it after
// every structural pass so downstream dimensions stay current.
func computeProvenance(ctx *Context, g *qsu.Graph) error {
	order, err := g.Postorder()
	if err != nil {
		return err
	}
	for _, sym := range order {
		dims, err := vertexDims(ctx.Auth, sym, g.Vertices[sym])
		if err != nil {
			return err
		}
		ctx.Auth[sym] = dims
	}
	return nil
}

func vertexDims(auth provenance.Auth, sym names.Symbol, v qsu.Vertex) (provenance.Dims, error) {
	src := func(srcSym names.Symbol) (provenance.Dims, error) {
		return auth.Lookup(srcSym)
	}
	switch v := v.(type) {
	case *qsu.ReadV:
		return provenance.Dims{&provenance.Proj{Key: v.Path.String()}}, nil
	case *qsu.ShiftedReadV:
		return provenance.Dims{&provenance.ID{Of: sym}}, nil
	case *qsu.UnreferencedV, *qsu.DeadEndV:
		return nil, nil
	case *qsu.MapV:
		return src(v.Src)
	case *qsu.UnaryV:
		return src(v.Src)
	case *qsu.FilterV:
		return src(v.Src)
	case *qsu.SortV:
		return src(v.Src)
	case *qsu.SubsetV:
		return src(v.Src)
	case *qsu.GroupByV:
		return src(v.Src)
	case *qsu.DistinctV:
		return provenance.Group([]mapfunc.Expr{v.Expr}), nil
	case *qsu.ReduceV:
		return provenance.Group(v.Buckets), nil
	case *qsu.LeftShiftV:
		dims, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return provenance.Shift(sym, dims), nil
	case *qsu.MultiLeftShiftV:
		dims, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return provenance.Shift(sym, dims), nil
	case *qsu.UnionV:
		dims, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return provenance.Union(treeDims(v.Left, dims), treeDims(v.Right, dims)), nil
	case *qsu.ThetaJoinV:
		dims, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return provenance.Join(treeDims(v.Left, dims), treeDims(v.Right, dims)), nil
	case *qsu.EquiJoinV:
		dims, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return provenance.Join(treeDims(v.Left, dims), treeDims(v.Right, dims)), nil
	case *qsu.AutoJoinV:
		var out provenance.Dims
		for k, srcSym := range v.Sources {
			dims, err := src(srcSym)
			if err != nil {
				return nil, err
			}
			if k == 0 {
				out = dims
			} else {
				out = provenance.Join(out, dims)
			}
		}
		return out, nil
	default:
		return nil, planerr.E(planerr.Internal, sym, "no provenance rule for %T", v)
	}
}

// treeDims derives the provenance of a branch sub-plan from the
// provenance flowing into its Hole.  Shifts inside branches mint
// anonymous axes: they never match a named axis, which is the
// conservative answer for the auto-join passes.
func treeDims(node qscript.Node, src provenance.Dims) provenance.Dims {
	switch node := node.(type) {
	case *qscript.Hole:
		return src
	case *qscript.Unreferenced, *qscript.DeadEnd:
		return nil
	case *qscript.Read:
		return provenance.Dims{&provenance.Proj{Key: node.Path.String()}}
	case *qscript.ShiftedRead:
		return provenance.Dims{&provenance.Proj{Key: node.Path.String()}}
	case *qscript.Map:
		return treeDims(node.Src, src)
	case *qscript.Filter:
		return treeDims(node.Src, src)
	case *qscript.Sort:
		return treeDims(node.Src, src)
	case *qscript.Subset:
		return treeDims(node.Src, src)
	case *qscript.Reduce:
		return provenance.Group(node.Buckets)
	case *qscript.LeftShift:
		return append(treeDims(node.Src, src), &provenance.ID{})
	case *qscript.Union:
		inner := treeDims(node.Src, src)
		return provenance.Union(treeDims(node.Left, inner), treeDims(node.Right, inner))
	case *qscript.ThetaJoin:
		inner := treeDims(node.Src, src)
		return provenance.Join(treeDims(node.Left, inner), treeDims(node.Right, inner))
	case *qscript.EquiJoin:
		inner := treeDims(node.Src, src)
		return provenance.Join(treeDims(node.Left, inner), treeDims(node.Right, inner))
	}
	return nil
}
