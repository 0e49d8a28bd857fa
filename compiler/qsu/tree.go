package qsu

import (
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/planerr"
	"github.com/romanowski/quasar/compiler/qscript"
)

// Tree materializes the plan rooted at sym as a qscript tree, duplicating
// shared vertices.  Provisional vertices have no tree form; encountering
// one means an earlier pass failed to eliminate it.
func (g *Graph) Tree(sym names.Symbol) (qscript.Node, error) {
	v, err := g.Vertex(sym)
	if err != nil {
		return nil, err
	}
	src := func(srcSym names.Symbol) (qscript.Node, error) {
		return g.Tree(srcSym)
	}
	switch v := v.(type) {
	case *ReadV:
		return &qscript.Read{Path: v.Path}, nil
	case *ShiftedReadV:
		return &qscript.ShiftedRead{Path: v.Path, IDStatus: v.IDStatus}, nil
	case *UnreferencedV:
		return &qscript.Unreferenced{}, nil
	case *DeadEndV:
		return &qscript.DeadEnd{}, nil
	case *MapV:
		s, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return &qscript.Map{Src: s, Fn: v.Fn}, nil
	case *LeftShiftV:
		s, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return &qscript.LeftShift{
			Src:      s,
			Struct:   v.Struct,
			IDStatus: v.IDStatus,
			Shift:    v.Rot.ShiftType(),
			Repair:   v.Repair,
		}, nil
	case *ReduceV:
		s, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return &qscript.Reduce{Src: s, Buckets: v.Buckets, Reducers: v.Reducers, Repair: v.Repair}, nil
	case *SortV:
		s, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return &qscript.Sort{Src: s, Buckets: v.Buckets, Keys: v.Keys}, nil
	case *FilterV:
		s, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return &qscript.Filter{Src: s, Predicate: v.Predicate}, nil
	case *UnionV:
		s, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return &qscript.Union{Src: s, Left: v.Left, Right: v.Right}, nil
	case *SubsetV:
		s, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return &qscript.Subset{Src: s, From: v.From, Op: v.Op, Count: v.Count}, nil
	case *ThetaJoinV:
		s, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return &qscript.ThetaJoin{Src: s, Left: v.Left, Right: v.Right, On: v.On, Join: v.Join, Combine: v.Combine}, nil
	case *EquiJoinV:
		s, err := src(v.Src)
		if err != nil {
			return nil, err
		}
		return &qscript.EquiJoin{Src: s, Left: v.Left, Right: v.Right, Keys: v.Keys, Join: v.Join, Combine: v.Combine}, nil
	default:
		return nil, planerr.E(planerr.UnexpectedConstruct, sym, "%s has no tree form", CanonVertex(v))
	}
}
