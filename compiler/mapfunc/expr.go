package mapfunc

// This module follows the GO AST design pattern in
// https://golang.org/pkg/go/ast/
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

import (
	"github.com/romanowski/quasar/compiler/names"
)

// Expr is a scalar expression applied row by row.  An expression tree is
// closed over one of several leaf families: Hole for functions of a single
// input row, LeftTarget/RightTarget/Access for shift repairs, LeftSide and
// RightSide for join combiners, SideRef for n-way auto-join combiners,
// ReducerRef for reduce repairs, and ShiftSource/ShiftValue for multi-shift
// repairs.  Each pass states which leaves are legal in the functions it
// consumes and produces.
type Expr interface {
	exprNode()
}

// Operator expressions.

type (
	BinaryExpr struct {
		Op  string
		LHS Expr
		RHS Expr
	}
	UnaryExpr struct {
		Op      string
		Operand Expr
	}
	// CallExpr covers the conversion, temporal, string, and derived
	// numeric functions, which share arity-and-name dispatch.
	CallExpr struct {
		Func string
		Args []Expr
	}
	MakeArray struct {
		Value Expr
	}
	MakeMap struct {
		Key   Expr
		Value Expr
	}
	ConcatArrays struct {
		LHS Expr
		RHS Expr
	}
	ConcatMaps struct {
		LHS Expr
		RHS Expr
	}
	ProjectKey struct {
		Src Expr
		Key Expr
	}
	ProjectIndex struct {
		Src   Expr
		Index Expr
	}
	DeleteKey struct {
		Src Expr
		Key Expr
	}
	Cond struct {
		If   Expr
		Then Expr
		Else Expr
	}
	IfUndefined struct {
		Expr    Expr
		Default Expr
	}
	Between struct {
		Expr Expr
		Lo   Expr
		Hi   Expr
	}
	// Guard evaluates Then when Expr conforms to the named type and Else
	// otherwise.
	Guard struct {
		Expr Expr
		Type string
		Then Expr
		Else Expr
	}
)

// Leaf expressions.

type (
	// Literal is a constant.  Value is one of string, int64, float64,
	// bool, or nil.
	Literal struct {
		Value any
	}
	Undefined struct{}
	Now       struct{}
	// Hole denotes the row flowing into the function.
	Hole struct{}
	// LeftTarget and RightTarget reference the pre-shift row and the
	// shifted element in a LeftShift repair.
	LeftTarget  struct{}
	RightTarget struct{}
	// Access is a provenance-tagged projection of the pre-shift row:
	// the value or the identity produced by the named node.
	Access struct {
		Of   names.Symbol
		Kind AccessKind
	}
	// ReducerRef references the i-th reducer output in a Reduce repair.
	ReducerRef struct {
		Index int
	}
	// SideRef references the i-th source branch of an auto-join combiner.
	SideRef struct {
		Index int
	}
	// LeftSide and RightSide reference the two rows joined by a theta or
	// equi join in its condition and combiner.
	LeftSide  struct{}
	RightSide struct{}
	// ShiftSource and ShiftValue reference the original row and the i-th
	// shifted value in a multi-shift repair.
	ShiftSource struct{}
	ShiftValue  struct {
		Index int
	}
	JoinSideName struct {
		Name string
	}
)

func (*BinaryExpr) exprNode()   {}
func (*UnaryExpr) exprNode()    {}
func (*CallExpr) exprNode()     {}
func (*MakeArray) exprNode()    {}
func (*MakeMap) exprNode()      {}
func (*ConcatArrays) exprNode() {}
func (*ConcatMaps) exprNode()   {}
func (*ProjectKey) exprNode()   {}
func (*ProjectIndex) exprNode() {}
func (*DeleteKey) exprNode()    {}
func (*Cond) exprNode()         {}
func (*IfUndefined) exprNode()  {}
func (*Between) exprNode()      {}
func (*Guard) exprNode()        {}

func (*Literal) exprNode()      {}
func (*Undefined) exprNode()    {}
func (*Now) exprNode()          {}
func (*Hole) exprNode()         {}
func (*LeftTarget) exprNode()   {}
func (*RightTarget) exprNode()  {}
func (*Access) exprNode()       {}
func (*ReducerRef) exprNode()   {}
func (*SideRef) exprNode()      {}
func (*LeftSide) exprNode()     {}
func (*RightSide) exprNode()    {}
func (*ShiftSource) exprNode()  {}
func (*ShiftValue) exprNode()   {}
func (*JoinSideName) exprNode() {}

// AccessKind selects which coordinate of a node's output an Access reads.
type AccessKind int

const (
	AccessValue AccessKind = iota
	AccessIdentity
)

func (k AccessKind) String() string {
	if k == AccessIdentity {
		return "identity"
	}
	return "value"
}
