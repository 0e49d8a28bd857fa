package qscript

// This module follows the GO AST design pattern in
// https://golang.org/pkg/go/ast/
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

import (
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/order"
	"github.com/romanowski/quasar/pkg/field"
)

// Node is a QScript operator in tree form.  Trees serve two roles: the
// branch sub-plans of Union, Subset, and the joins, which are rooted at
// Hole, and the educated output of the compiler, which is rooted at a
// Read or ShiftedRead.
type Node interface {
	qscriptNode()
}

type (
	// Hole is the row set flowing into a branch sub-plan.
	Hole struct{}
	// Unreferenced is the empty sentinel source.
	Unreferenced struct{}
	// DeadEnd is the root of the backing store.
	DeadEnd struct{}
	Read    struct {
		Path field.Path
	}
	ShiftedRead struct {
		Path     field.Path
		IDStatus IDStatus
	}
	Map struct {
		Src Node
		Fn  mapfunc.Expr
	}
	LeftShift struct {
		Src      Node
		Struct   mapfunc.Expr
		IDStatus IDStatus
		Shift    ShiftType
		Repair   mapfunc.Expr
	}
	Reduce struct {
		Src      Node
		Buckets  []mapfunc.Expr
		Reducers []ReduceFunc
		Repair   mapfunc.Expr
	}
	Sort struct {
		Src     Node
		Buckets []mapfunc.Expr
		Keys    []SortKey
	}
	Filter struct {
		Src       Node
		Predicate mapfunc.Expr
	}
	Union struct {
		Src   Node
		Left  Node
		Right Node
	}
	Subset struct {
		Src   Node
		From  Node
		Op    SubsetOp
		Count Node
	}
	ThetaJoin struct {
		Src     Node
		Left    Node
		Right   Node
		On      mapfunc.Expr
		Join    JoinType
		Combine mapfunc.Expr
	}
	EquiJoin struct {
		Src     Node
		Left    Node
		Right   Node
		Keys    []JoinKey
		Join    JoinType
		Combine mapfunc.Expr
	}
)

func (*Hole) qscriptNode()         {}
func (*Unreferenced) qscriptNode() {}
func (*DeadEnd) qscriptNode()      {}
func (*Read) qscriptNode()         {}
func (*ShiftedRead) qscriptNode()  {}
func (*Map) qscriptNode()          {}
func (*LeftShift) qscriptNode()    {}
func (*Reduce) qscriptNode()       {}
func (*Sort) qscriptNode()         {}
func (*Filter) qscriptNode()       {}
func (*Union) qscriptNode()        {}
func (*Subset) qscriptNode()       {}
func (*ThetaJoin) qscriptNode()    {}
func (*EquiJoin) qscriptNode()     {}

// Support types.

type (
	// Shift is one entry of a multi-shift: unnest the value produced by
	// Struct from each row, rotating by Rot.
	Shift struct {
		Struct   mapfunc.Expr
		IDStatus IDStatus
		Rot      Rotation
	}
	ReduceFunc struct {
		Op   string
		Expr mapfunc.Expr
	}
	SortKey struct {
		Expr  mapfunc.Expr
		Order order.Which
	}
	JoinKey struct {
		Left  mapfunc.Expr
		Right mapfunc.Expr
	}
)
