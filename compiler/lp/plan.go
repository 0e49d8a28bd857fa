package lp

// This module follows the GO AST design pattern in
// https://golang.org/pkg/go/ast/
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

import (
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/order"
	"github.com/romanowski/quasar/pkg/field"
)

// Plan is a node of the logical plan handed to the compiler by the query
// front end.  The plan is pointful: scalar computation appears as Invoke
// nodes over Free references and constants, and the compiler recovers
// the pointfree row functions during translation.
type Plan interface {
	planNode()
}

type (
	Read struct {
		Path field.Path
	}
	// Constant is a literal value: string, int64, float64, bool, or nil.
	Constant struct {
		Value any
	}
	Free struct {
		Name string
	}
	Let struct {
		Name string
		Form Plan
		In   Plan
	}
	// Invoke applies a named function: a scalar mapping function, a
	// relational function (where, group_by), a reducer, or a shift.
	Invoke struct {
		Func string
		Args []Plan
	}
	Sort struct {
		Src  Plan
		Keys []SortKey
	}
	Join struct {
		Left      Plan
		Right     Plan
		Type      qscript.JoinType
		LeftName  string
		RightName string
		Cond      Plan
	}
	Union struct {
		Left  Plan
		Right Plan
	}
	Subset struct {
		Src   Plan
		Op    qscript.SubsetOp
		Count int64
	}
	// Typecheck evaluates Cont when Expr conforms to the named type and
	// Fallback otherwise.
	Typecheck struct {
		Expr     Plan
		Type     string
		Cont     Plan
		Fallback Plan
	}
)

type SortKey struct {
	Expr  Plan
	Order order.Which
}

func (*Read) planNode()      {}
func (*Constant) planNode()  {}
func (*Free) planNode()      {}
func (*Let) planNode()       {}
func (*Invoke) planNode()    {}
func (*Sort) planNode()      {}
func (*Join) planNode()      {}
func (*Union) planNode()     {}
func (*Subset) planNode()    {}
func (*Typecheck) planNode() {}

func NewRead(path string) *Read {
	return &Read{Path: field.Slashed(path)}
}

func NewInvoke(fn string, args ...Plan) *Invoke {
	return &Invoke{Func: fn, Args: args}
}

func NewConstant(value any) *Constant {
	return &Constant{Value: value}
}

func NewFree(name string) *Free {
	return &Free{Name: name}
}

// Reducers fold a grouped row set to one row per group.
var reducers = map[string]struct{}{
	"count":     {},
	"sum":       {},
	"min":       {},
	"max":       {},
	"avg":       {},
	"arbitrary": {},
}

func IsReducer(fn string) bool {
	_, ok := reducers[fn]
	return ok
}

// Rotation maps a shift function name to its rotation.
func Rotation(fn string) (qscript.Rotation, bool) {
	switch fn {
	case "shift_array":
		return qscript.ShiftArray, true
	case "shift_map":
		return qscript.ShiftMap, true
	case "flatten_array":
		return qscript.FlattenArray, true
	case "flatten_map":
		return qscript.FlattenMap, true
	}
	return 0, false
}
