package lptoqs

import (
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/planerr"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/compiler/qsu"
)

// Graduate projects the settled graph onto the educated tree algebra
// that backend planners accept.  Any internal construct still present is
// a bug in an earlier pass, not an input error, and graduation rejects
// it rather than recovering.
func Graduate(ctx *Context, g *qsu.Graph) (qscript.Node, error) {
	if err := g.Verify(); err != nil {
		return nil, err
	}
	if ctx.Auth != nil {
		if err := ctx.Auth.Verify(g); err != nil {
			return nil, err
		}
	}
	order, err := g.Postorder()
	if err != nil {
		return nil, err
	}
	for _, sym := range order {
		v := g.Vertices[sym]
		switch v.(type) {
		case *qsu.UnaryV, *qsu.GroupByV, *qsu.DistinctV, *qsu.AutoJoinV, *qsu.MultiLeftShiftV:
			return nil, planerr.E(planerr.UnexpectedConstruct, sym, "%s survived normalization", qsu.CanonVertex(v))
		}
		for _, expr := range qsu.Exprs(v) {
			if bad := internalLeaf(expr); bad != nil {
				return nil, planerr.E(planerr.NonRepresentable, sym, "internal leaf %s", mapfunc.Canon(bad))
			}
		}
	}
	tree, err := g.Tree(g.Root)
	if err != nil {
		return nil, err
	}
	return Educate(tree)
}

// Educate checks that a tree lies in the educated algebra and returns it
// unchanged, so educating twice is the same as educating once.
func Educate(node qscript.Node) (qscript.Node, error) {
	if err := educate(node, false); err != nil {
		return nil, err
	}
	return node, nil
}

func educate(node qscript.Node, inBranch bool) error {
	switch node := node.(type) {
	case *qscript.Hole:
		if !inBranch {
			return planerr.E(planerr.UnexpectedConstruct, "hole outside a branch")
		}
		return nil
	case *qscript.DeadEnd:
		return planerr.E(planerr.UnexpectedConstruct, "root sentinel in educated plan")
	case *qscript.Unreferenced, *qscript.Read, *qscript.ShiftedRead:
		return nil
	case *qscript.Map:
		if bad := internalLeaf(node.Fn); bad != nil {
			return planerr.E(planerr.NonRepresentable, "internal leaf %s", mapfunc.Canon(bad))
		}
		return educate(node.Src, inBranch)
	case *qscript.LeftShift:
		if bad := internalLeaf(node.Struct); bad != nil {
			return planerr.E(planerr.NonRepresentable, "internal leaf %s", mapfunc.Canon(bad))
		}
		if bad := internalLeaf(node.Repair); bad != nil {
			return planerr.E(planerr.NonRepresentable, "internal leaf %s", mapfunc.Canon(bad))
		}
		return educate(node.Src, inBranch)
	case *qscript.Reduce:
		return educate(node.Src, inBranch)
	case *qscript.Sort:
		return educate(node.Src, inBranch)
	case *qscript.Filter:
		if bad := internalLeaf(node.Predicate); bad != nil {
			return planerr.E(planerr.NonRepresentable, "internal leaf %s", mapfunc.Canon(bad))
		}
		return educate(node.Src, inBranch)
	case *qscript.Union:
		if err := educate(node.Left, true); err != nil {
			return err
		}
		if err := educate(node.Right, true); err != nil {
			return err
		}
		return educate(node.Src, inBranch)
	case *qscript.Subset:
		if err := educate(node.From, true); err != nil {
			return err
		}
		if err := educate(node.Count, true); err != nil {
			return err
		}
		return educate(node.Src, inBranch)
	case *qscript.ThetaJoin:
		if err := educate(node.Left, true); err != nil {
			return err
		}
		if err := educate(node.Right, true); err != nil {
			return err
		}
		return educate(node.Src, inBranch)
	case *qscript.EquiJoin:
		if err := educate(node.Left, true); err != nil {
			return err
		}
		if err := educate(node.Right, true); err != nil {
			return err
		}
		return educate(node.Src, inBranch)
	default:
		return planerr.E(planerr.UnexpectedConstruct, "unknown node %T", node)
	}
}

// internalLeaf returns the first leaf of e that only the pipeline's
// internal passes may use, or nil when e is publishable.
func internalLeaf(e mapfunc.Expr) mapfunc.Expr {
	var bad mapfunc.Expr
	mapfunc.Walk(e, func(e mapfunc.Expr) bool {
		switch e.(type) {
		case *mapfunc.Access, *mapfunc.SideRef, *mapfunc.ShiftSource, *mapfunc.ShiftValue:
			bad = e
			return false
		}
		return bad == nil
	})
	return bad
}
