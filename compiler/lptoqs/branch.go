package lptoqs

import (
	"reflect"

	"github.com/romanowski/quasar/compiler/lp"
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/planerr"
	"github.com/romanowski/quasar/compiler/qscript"
)

// tree translates a branch sub-plan of a union, subset, or join into
// tree form.  Branches must be closed: they may read, map, filter, sort,
// shift, reduce, and subset, but cross-branch references and nested
// joins are not representable inside a branch.
func (t *translator) tree(p lp.Plan) (qscript.Node, error) {
	switch p := p.(type) {
	case *lp.Read:
		if p.Path.IsRoot() {
			return nil, planerr.E(planerr.NoFilePathFound, "read of the store root")
		}
		return &qscript.ShiftedRead{Path: p.Path, IDStatus: qscript.ExcludeID}, nil
	case *lp.Constant:
		lit, err := literal(p.Value)
		if err != nil {
			return nil, err
		}
		return &qscript.Map{Src: &qscript.Unreferenced{}, Fn: lit}, nil
	case *lp.Free:
		b, ok := t.treeEnv[p.Name]
		if !ok {
			return nil, planerr.E(planerr.UnboundVariable, "variable %q", p.Name)
		}
		return qscript.Copy(b.node), nil
	case *lp.Let:
		form, err := t.tree(p.Form)
		if err != nil {
			return nil, err
		}
		saved, had := t.treeEnv[p.Name]
		t.treeEnv[p.Name] = treeBinding{node: form, plan: p.Form}
		in, err := t.tree(p.In)
		if had {
			t.treeEnv[p.Name] = saved
		} else {
			delete(t.treeEnv, p.Name)
		}
		return in, err
	case *lp.Invoke:
		return t.treeInvoke(p)
	case *lp.Sort:
		src, err := t.tree(p.Src)
		if err != nil {
			return nil, err
		}
		keys := make([]qscript.SortKey, 0, len(p.Keys))
		for _, key := range p.Keys {
			expr, err := t.treeScalar(key.Expr, p.Src)
			if err != nil {
				return nil, err
			}
			keys = append(keys, qscript.SortKey{Expr: expr, Order: key.Order})
		}
		return &qscript.Sort{Src: src, Keys: keys}, nil
	case *lp.Union:
		left, err := t.tree(p.Left)
		if err != nil {
			return nil, err
		}
		right, err := t.tree(p.Right)
		if err != nil {
			return nil, err
		}
		return &qscript.Union{Src: &qscript.Unreferenced{}, Left: left, Right: right}, nil
	case *lp.Subset:
		src, err := t.tree(p.Src)
		if err != nil {
			return nil, err
		}
		return &qscript.Subset{
			Src:   src,
			From:  &qscript.Hole{},
			Op:    p.Op,
			Count: &qscript.Map{Src: &qscript.Hole{}, Fn: mapfunc.Int(p.Count)},
		}, nil
	default:
		return nil, planerr.E(planerr.NonRepresentable, "plan node %T inside a branch", p)
	}
}

func (t *translator) treeInvoke(p *lp.Invoke) (qscript.Node, error) {
	switch {
	case p.Func == "where":
		if len(p.Args) != 2 {
			return nil, planerr.E(planerr.MalformedInput, "where wants 2 arguments, has %d", len(p.Args))
		}
		src, err := t.tree(p.Args[0])
		if err != nil {
			return nil, err
		}
		pred, err := t.treeScalar(p.Args[1], p.Args[0])
		if err != nil {
			return nil, err
		}
		return &qscript.Filter{Src: src, Predicate: pred}, nil
	case p.Func == "group_by":
		return nil, planerr.E(planerr.NonRepresentable, "group_by inside a branch")
	case lp.IsReducer(p.Func):
		if len(p.Args) != 1 {
			return nil, planerr.E(planerr.MalformedInput, "%s wants 1 argument, has %d", p.Func, len(p.Args))
		}
		src, err := t.tree(p.Args[0])
		if err != nil {
			return nil, err
		}
		return &qscript.Reduce{
			Src:      src,
			Reducers: []qscript.ReduceFunc{{Op: p.Func, Expr: &mapfunc.Hole{}}},
			Repair:   &mapfunc.ReducerRef{Index: 0},
		}, nil
	default:
		if rot, ok := lp.Rotation(p.Func); ok {
			if len(p.Args) != 1 {
				return nil, planerr.E(planerr.MalformedInput, "%s wants 1 argument, has %d", p.Func, len(p.Args))
			}
			src, err := t.tree(p.Args[0])
			if err != nil {
				return nil, err
			}
			return &qscript.LeftShift{
				Src:      src,
				Struct:   &mapfunc.Hole{},
				IDStatus: qscript.ExcludeID,
				Shift:    rot.ShiftType(),
				Repair:   &mapfunc.RightTarget{},
			}, nil
		}
		return t.treeMapping(p)
	}
}

// treeMapping translates a scalar application inside a branch.  At most
// one argument may be a row set; several row sets would need an
// auto-join, which branches cannot hold.
func (t *translator) treeMapping(p *lp.Invoke) (qscript.Node, error) {
	var srcPlan lp.Plan
	for _, arg := range p.Args {
		if _, ok := arg.(*lp.Constant); ok {
			continue
		}
		if srcPlan != nil && !reflect.DeepEqual(srcPlan, arg) {
			return nil, planerr.E(planerr.NonRepresentable, "auto-join inside a branch")
		}
		srcPlan = arg
	}
	if srcPlan == nil {
		fn, err := t.treeScalar(&lp.Invoke{Func: p.Func, Args: p.Args}, nil)
		if err != nil {
			return nil, err
		}
		return &qscript.Map{Src: &qscript.Unreferenced{}, Fn: fn}, nil
	}
	src, err := t.tree(srcPlan)
	if err != nil {
		return nil, err
	}
	fn, err := t.treeScalar(&lp.Invoke{Func: p.Func, Args: p.Args}, srcPlan)
	if err != nil {
		return nil, err
	}
	return &qscript.Map{Src: src, Fn: fn}, nil
}

// treeScalar converts a plan in expression position relative to the
// branch rows produced by overPlan.
func (t *translator) treeScalar(p lp.Plan, overPlan lp.Plan) (mapfunc.Expr, error) {
	if overPlan != nil && reflect.DeepEqual(p, overPlan) {
		return &mapfunc.Hole{}, nil
	}
	switch p := p.(type) {
	case *lp.Free:
		if b, ok := t.treeEnv[p.Name]; ok && overPlan != nil && reflect.DeepEqual(b.plan, overPlan) {
			return &mapfunc.Hole{}, nil
		}
		return nil, planerr.E(planerr.NonRepresentable, "reference %q inside a branch expression", p.Name)
	case *lp.Constant:
		return literal(p.Value)
	case *lp.Invoke:
		if p.Func == "where" || p.Func == "group_by" || lp.IsReducer(p.Func) {
			return nil, planerr.E(planerr.NonRepresentable, "relational %s in expression position", p.Func)
		}
		if _, ok := lp.Rotation(p.Func); ok {
			return nil, planerr.E(planerr.NonRepresentable, "shift %s in expression position", p.Func)
		}
		args := make([]mapfunc.Expr, 0, len(p.Args))
		for _, arg := range p.Args {
			e, err := t.treeScalar(arg, overPlan)
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}
		return buildMapping(p.Func, args)
	default:
		return nil, planerr.E(planerr.NonRepresentable, "plan node %T in branch expression", p)
	}
}
