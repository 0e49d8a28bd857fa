package mapfunc

import (
	"fmt"
	"strings"
)

// Canon renders e in a deterministic single-line form for traces, error
// messages, and test comparison.  Hole renders as "this" and structural
// concatenation as infix "+" so repairs read like record expressions.
func Canon(e Expr) string {
	var b strings.Builder
	canon(&b, e)
	return b.String()
}

func canon(b *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *BinaryExpr:
		b.WriteByte('(')
		canon(b, e.LHS)
		b.WriteString(e.Op)
		canon(b, e.RHS)
		b.WriteByte(')')
	case *UnaryExpr:
		b.WriteString(e.Op)
		canon(b, e.Operand)
	case *CallExpr:
		b.WriteString(e.Func)
		b.WriteByte('(')
		for i, arg := range e.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			canon(b, arg)
		}
		b.WriteByte(')')
	case *MakeArray:
		b.WriteByte('[')
		canon(b, e.Value)
		b.WriteByte(']')
	case *MakeMap:
		b.WriteByte('{')
		canon(b, e.Key)
		b.WriteByte(':')
		canon(b, e.Value)
		b.WriteByte('}')
	case *ConcatArrays:
		b.WriteByte('(')
		canon(b, e.LHS)
		b.WriteString("++")
		canon(b, e.RHS)
		b.WriteByte(')')
	case *ConcatMaps:
		b.WriteByte('(')
		canon(b, e.LHS)
		b.WriteByte('+')
		canon(b, e.RHS)
		b.WriteByte(')')
	case *ProjectKey:
		canon(b, e.Src)
		b.WriteByte('[')
		canon(b, e.Key)
		b.WriteByte(']')
	case *ProjectIndex:
		canon(b, e.Src)
		b.WriteByte('[')
		canon(b, e.Index)
		b.WriteByte(']')
	case *DeleteKey:
		b.WriteString("delete(")
		canon(b, e.Src)
		b.WriteByte(',')
		canon(b, e.Key)
		b.WriteByte(')')
	case *Cond:
		b.WriteByte('(')
		canon(b, e.If)
		b.WriteByte('?')
		canon(b, e.Then)
		b.WriteByte(':')
		canon(b, e.Else)
		b.WriteByte(')')
	case *IfUndefined:
		b.WriteString("if_undefined(")
		canon(b, e.Expr)
		b.WriteByte(',')
		canon(b, e.Default)
		b.WriteByte(')')
	case *Between:
		b.WriteString("between(")
		canon(b, e.Expr)
		b.WriteByte(',')
		canon(b, e.Lo)
		b.WriteByte(',')
		canon(b, e.Hi)
		b.WriteByte(')')
	case *Guard:
		fmt.Fprintf(b, "guard(%s,", e.Type)
		canon(b, e.Expr)
		b.WriteByte(',')
		canon(b, e.Then)
		b.WriteByte(',')
		canon(b, e.Else)
		b.WriteByte(')')
	case *Literal:
		switch v := e.Value.(type) {
		case string:
			fmt.Fprintf(b, "%q", v)
		case nil:
			b.WriteString("null")
		default:
			fmt.Fprintf(b, "%v", v)
		}
	case *Undefined:
		b.WriteString("undefined")
	case *Now:
		b.WriteString("now()")
	case *Hole:
		b.WriteString("this")
	case *LeftTarget:
		b.WriteString("left")
	case *RightTarget:
		b.WriteString("right")
	case *Access:
		fmt.Fprintf(b, "access(%s,%s)", e.Of, e.Kind)
	case *ReducerRef:
		fmt.Fprintf(b, "red(%d)", e.Index)
	case *SideRef:
		fmt.Fprintf(b, "side(%d)", e.Index)
	case *LeftSide:
		b.WriteString("side_l")
	case *RightSide:
		b.WriteString("side_r")
	case *ShiftSource:
		b.WriteString("source")
	case *ShiftValue:
		fmt.Fprintf(b, "shifted(%d)", e.Index)
	case *JoinSideName:
		fmt.Fprintf(b, "side(%q)", e.Name)
	default:
		fmt.Fprintf(b, "!unknown(%T)", e)
	}
}
