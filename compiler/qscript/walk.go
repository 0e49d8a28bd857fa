package qscript

import (
	"fmt"

	"github.com/romanowski/quasar/compiler/mapfunc"
)

// Copy returns a deep copy of node.
func Copy(node Node) Node {
	switch node := node.(type) {
	case *Hole:
		return &Hole{}
	case *Unreferenced:
		return &Unreferenced{}
	case *DeadEnd:
		return &DeadEnd{}
	case *Read:
		return &Read{Path: node.Path}
	case *ShiftedRead:
		return &ShiftedRead{Path: node.Path, IDStatus: node.IDStatus}
	case *Map:
		return &Map{Src: Copy(node.Src), Fn: mapfunc.Copy(node.Fn)}
	case *LeftShift:
		return &LeftShift{
			Src:      Copy(node.Src),
			Struct:   mapfunc.Copy(node.Struct),
			IDStatus: node.IDStatus,
			Shift:    node.Shift,
			Repair:   mapfunc.Copy(node.Repair),
		}
	case *Reduce:
		return &Reduce{
			Src:      Copy(node.Src),
			Buckets:  copyExprs(node.Buckets),
			Reducers: copyReducers(node.Reducers),
			Repair:   mapfunc.Copy(node.Repair),
		}
	case *Sort:
		keys := make([]SortKey, 0, len(node.Keys))
		for _, key := range node.Keys {
			keys = append(keys, SortKey{Expr: mapfunc.Copy(key.Expr), Order: key.Order})
		}
		return &Sort{Src: Copy(node.Src), Buckets: copyExprs(node.Buckets), Keys: keys}
	case *Filter:
		return &Filter{Src: Copy(node.Src), Predicate: mapfunc.Copy(node.Predicate)}
	case *Union:
		return &Union{Src: Copy(node.Src), Left: Copy(node.Left), Right: Copy(node.Right)}
	case *Subset:
		return &Subset{Src: Copy(node.Src), From: Copy(node.From), Op: node.Op, Count: Copy(node.Count)}
	case *ThetaJoin:
		return &ThetaJoin{
			Src:     Copy(node.Src),
			Left:    Copy(node.Left),
			Right:   Copy(node.Right),
			On:      mapfunc.Copy(node.On),
			Join:    node.Join,
			Combine: mapfunc.Copy(node.Combine),
		}
	case *EquiJoin:
		keys := make([]JoinKey, 0, len(node.Keys))
		for _, key := range node.Keys {
			keys = append(keys, JoinKey{Left: mapfunc.Copy(key.Left), Right: mapfunc.Copy(key.Right)})
		}
		return &EquiJoin{
			Src:     Copy(node.Src),
			Left:    Copy(node.Left),
			Right:   Copy(node.Right),
			Keys:    keys,
			Join:    node.Join,
			Combine: mapfunc.Copy(node.Combine),
		}
	default:
		panic(fmt.Sprintf("qscript: unknown node type %T", node))
	}
}

func copyExprs(exprs []mapfunc.Expr) []mapfunc.Expr {
	if exprs == nil {
		return nil
	}
	out := make([]mapfunc.Expr, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, mapfunc.Copy(e))
	}
	return out
}

func copyReducers(reducers []ReduceFunc) []ReduceFunc {
	if reducers == nil {
		return nil
	}
	out := make([]ReduceFunc, 0, len(reducers))
	for _, r := range reducers {
		out = append(out, ReduceFunc{Op: r.Op, Expr: mapfunc.Copy(r.Expr)})
	}
	return out
}

// CopyShifts deep-copies a multi-shift entry list.
func CopyShifts(shifts []Shift) []Shift {
	if shifts == nil {
		return nil
	}
	out := make([]Shift, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, Shift{Struct: mapfunc.Copy(s.Struct), IDStatus: s.IDStatus, Rot: s.Rot})
	}
	return out
}
