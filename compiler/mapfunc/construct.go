package mapfunc

import "github.com/romanowski/quasar/compiler/names"

// Construction helpers.  These are pure: they never allocate symbols, and
// equal constructions are structurally equal.

func NewBinaryExpr(op string, lhs, rhs Expr) *BinaryExpr {
	return &BinaryExpr{Op: op, LHS: lhs, RHS: rhs}
}

func NewUnaryExpr(op string, operand Expr) *UnaryExpr {
	return &UnaryExpr{Op: op, Operand: operand}
}

func NewCall(fn string, args ...Expr) *CallExpr {
	return &CallExpr{Func: fn, Args: args}
}

func NewCond(ifE, thenE, elseE Expr) *Cond {
	return &Cond{If: ifE, Then: thenE, Else: elseE}
}

func NewAccess(of names.Symbol, kind AccessKind) *Access {
	return &Access{Of: of, Kind: kind}
}

// Literal sugars.

func String(s string) *Literal { return &Literal{Value: s} }

func Int(i int64) *Literal { return &Literal{Value: i} }

func Float(f float64) *Literal { return &Literal{Value: f} }

func Bool(b bool) *Literal { return &Literal{Value: b} }

func Null() *Literal { return &Literal{Value: nil} }

// Structural sugars over string keys and integer indexes.

func ProjectKeyS(src Expr, key string) *ProjectKey {
	return &ProjectKey{Src: src, Key: String(key)}
}

func MakeMapS(key string, value Expr) *MakeMap {
	return &MakeMap{Key: String(key), Value: value}
}

func DeleteKeyS(src Expr, key string) *DeleteKey {
	return &DeleteKey{Src: src, Key: String(key)}
}

func ProjectIndexI(src Expr, index int64) *ProjectIndex {
	return &ProjectIndex{Src: src, Index: Int(index)}
}

// ConcatMapsAll left-folds ConcatMaps over exprs, which must be non-empty.
func ConcatMapsAll(exprs ...Expr) Expr {
	out := exprs[0]
	for _, e := range exprs[1:] {
		out = &ConcatMaps{LHS: out, RHS: e}
	}
	return out
}
