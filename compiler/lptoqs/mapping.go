package lptoqs

import (
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/planerr"
)

var binaryOps = map[string]string{
	"add":      "+",
	"subtract": "-",
	"multiply": "*",
	"divide":   "/",
	"modulo":   "%",
	"power":    "**",
	"eq":       "==",
	"neq":      "!=",
	"lt":       "<",
	"lte":      "<=",
	"gt":       ">",
	"gte":      ">=",
	"and":      "and",
	"or":       "or",
	"range":    "..",
	"within":   "in",
}

var unaryOps = map[string]string{
	"negate": "-",
	"not":    "!",
}

// buildMapping rolls one layer of a scalar function over already
// translated children.  Functions without dedicated structure translate
// as calls: the conversion, temporal, string, and derived families all
// dispatch by name downstream.
func buildMapping(fn string, args []mapfunc.Expr) (mapfunc.Expr, error) {
	if op, ok := binaryOps[fn]; ok {
		if err := arity(fn, args, 2); err != nil {
			return nil, err
		}
		return mapfunc.NewBinaryExpr(op, args[0], args[1]), nil
	}
	if op, ok := unaryOps[fn]; ok {
		if err := arity(fn, args, 1); err != nil {
			return nil, err
		}
		return mapfunc.NewUnaryExpr(op, args[0]), nil
	}
	switch fn {
	case "make_array":
		if err := arity(fn, args, 1); err != nil {
			return nil, err
		}
		return &mapfunc.MakeArray{Value: args[0]}, nil
	case "make_map":
		if err := arity(fn, args, 2); err != nil {
			return nil, err
		}
		return &mapfunc.MakeMap{Key: args[0], Value: args[1]}, nil
	case "concat_arrays":
		if err := arity(fn, args, 2); err != nil {
			return nil, err
		}
		return &mapfunc.ConcatArrays{LHS: args[0], RHS: args[1]}, nil
	case "concat_maps":
		if err := arity(fn, args, 2); err != nil {
			return nil, err
		}
		return &mapfunc.ConcatMaps{LHS: args[0], RHS: args[1]}, nil
	case "project_key":
		if err := arity(fn, args, 2); err != nil {
			return nil, err
		}
		return &mapfunc.ProjectKey{Src: args[0], Key: args[1]}, nil
	case "project_index":
		if err := arity(fn, args, 2); err != nil {
			return nil, err
		}
		return &mapfunc.ProjectIndex{Src: args[0], Index: args[1]}, nil
	case "delete_key":
		if err := arity(fn, args, 2); err != nil {
			return nil, err
		}
		return &mapfunc.DeleteKey{Src: args[0], Key: args[1]}, nil
	case "cond":
		if err := arity(fn, args, 3); err != nil {
			return nil, err
		}
		return mapfunc.NewCond(args[0], args[1], args[2]), nil
	case "if_undefined":
		if err := arity(fn, args, 2); err != nil {
			return nil, err
		}
		return &mapfunc.IfUndefined{Expr: args[0], Default: args[1]}, nil
	case "between":
		if err := arity(fn, args, 3); err != nil {
			return nil, err
		}
		return &mapfunc.Between{Expr: args[0], Lo: args[1], Hi: args[2]}, nil
	case "undefined":
		if err := arity(fn, args, 0); err != nil {
			return nil, err
		}
		return &mapfunc.Undefined{}, nil
	case "now":
		if err := arity(fn, args, 0); err != nil {
			return nil, err
		}
		return &mapfunc.Now{}, nil
	default:
		return mapfunc.NewCall(fn, args...), nil
	}
}

func arity(fn string, args []mapfunc.Expr, want int) error {
	if len(args) != want {
		return planerr.E(planerr.MalformedInput, "%s wants %d arguments, has %d", fn, want, len(args))
	}
	return nil
}
