package mapfunc

import "fmt"

// Rewrite rebuilds e bottom-up, applying post to every rebuilt node.  The
// input is never mutated.
func Rewrite(e Expr, post func(Expr) Expr) Expr {
	switch e := e.(type) {
	case *BinaryExpr:
		return post(&BinaryExpr{e.Op, Rewrite(e.LHS, post), Rewrite(e.RHS, post)})
	case *UnaryExpr:
		return post(&UnaryExpr{e.Op, Rewrite(e.Operand, post)})
	case *CallExpr:
		args := make([]Expr, 0, len(e.Args))
		for _, arg := range e.Args {
			args = append(args, Rewrite(arg, post))
		}
		return post(&CallExpr{e.Func, args})
	case *MakeArray:
		return post(&MakeArray{Rewrite(e.Value, post)})
	case *MakeMap:
		return post(&MakeMap{Rewrite(e.Key, post), Rewrite(e.Value, post)})
	case *ConcatArrays:
		return post(&ConcatArrays{Rewrite(e.LHS, post), Rewrite(e.RHS, post)})
	case *ConcatMaps:
		return post(&ConcatMaps{Rewrite(e.LHS, post), Rewrite(e.RHS, post)})
	case *ProjectKey:
		return post(&ProjectKey{Rewrite(e.Src, post), Rewrite(e.Key, post)})
	case *ProjectIndex:
		return post(&ProjectIndex{Rewrite(e.Src, post), Rewrite(e.Index, post)})
	case *DeleteKey:
		return post(&DeleteKey{Rewrite(e.Src, post), Rewrite(e.Key, post)})
	case *Cond:
		return post(&Cond{Rewrite(e.If, post), Rewrite(e.Then, post), Rewrite(e.Else, post)})
	case *IfUndefined:
		return post(&IfUndefined{Rewrite(e.Expr, post), Rewrite(e.Default, post)})
	case *Between:
		return post(&Between{Rewrite(e.Expr, post), Rewrite(e.Lo, post), Rewrite(e.Hi, post)})
	case *Guard:
		return post(&Guard{Rewrite(e.Expr, post), e.Type, Rewrite(e.Then, post), Rewrite(e.Else, post)})
	case *Literal:
		return post(&Literal{e.Value})
	case *Access:
		return post(&Access{e.Of, e.Kind})
	case *ReducerRef:
		return post(&ReducerRef{e.Index})
	case *SideRef:
		return post(&SideRef{e.Index})
	case *ShiftValue:
		return post(&ShiftValue{e.Index})
	case *JoinSideName:
		return post(&JoinSideName{e.Name})
	case *Undefined:
		return post(&Undefined{})
	case *Now:
		return post(&Now{})
	case *Hole:
		return post(&Hole{})
	case *LeftTarget:
		return post(&LeftTarget{})
	case *RightTarget:
		return post(&RightTarget{})
	case *LeftSide:
		return post(&LeftSide{})
	case *RightSide:
		return post(&RightSide{})
	case *ShiftSource:
		return post(&ShiftSource{})
	default:
		panic(fmt.Sprintf("mapfunc: unknown expression type %T", e))
	}
}

// Copy returns a deep copy of e.
func Copy(e Expr) Expr {
	return Rewrite(e, func(e Expr) Expr { return e })
}

// Compose substitutes src for every Hole leaf of fn, yielding fn applied
// after whatever produced src.
func Compose(fn, src Expr) Expr {
	return Rewrite(fn, func(e Expr) Expr {
		if _, ok := e.(*Hole); ok {
			return Copy(src)
		}
		return e
	})
}

// Walk visits every node of e top-down.  Visiting stops in a subtree when
// pre returns false.
func Walk(e Expr, pre func(Expr) bool) {
	if !pre(e) {
		return
	}
	switch e := e.(type) {
	case *BinaryExpr:
		Walk(e.LHS, pre)
		Walk(e.RHS, pre)
	case *UnaryExpr:
		Walk(e.Operand, pre)
	case *CallExpr:
		for _, arg := range e.Args {
			Walk(arg, pre)
		}
	case *MakeArray:
		Walk(e.Value, pre)
	case *MakeMap:
		Walk(e.Key, pre)
		Walk(e.Value, pre)
	case *ConcatArrays:
		Walk(e.LHS, pre)
		Walk(e.RHS, pre)
	case *ConcatMaps:
		Walk(e.LHS, pre)
		Walk(e.RHS, pre)
	case *ProjectKey:
		Walk(e.Src, pre)
		Walk(e.Key, pre)
	case *ProjectIndex:
		Walk(e.Src, pre)
		Walk(e.Index, pre)
	case *DeleteKey:
		Walk(e.Src, pre)
		Walk(e.Key, pre)
	case *Cond:
		Walk(e.If, pre)
		Walk(e.Then, pre)
		Walk(e.Else, pre)
	case *IfUndefined:
		Walk(e.Expr, pre)
		Walk(e.Default, pre)
	case *Between:
		Walk(e.Expr, pre)
		Walk(e.Lo, pre)
		Walk(e.Hi, pre)
	case *Guard:
		Walk(e.Expr, pre)
		Walk(e.Then, pre)
		Walk(e.Else, pre)
	}
}

// Has reports whether any node of e satisfies pred.
func Has(e Expr, pred func(Expr) bool) bool {
	var found bool
	Walk(e, func(e Expr) bool {
		if found || pred(e) {
			found = true
			return false
		}
		return true
	})
	return found
}

// IsHole reports whether e is the identity function on its input row.
func IsHole(e Expr) bool {
	_, ok := e.(*Hole)
	return ok
}
