package lptoqs

import (
	"reflect"

	"github.com/romanowski/quasar/compiler/lp"
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/planerr"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/compiler/qsu"
)

// ReadLP translates a pointful logical plan into the initial QSU graph.
// Scalar computation over a single row set becomes a row function right
// away; scalar computation spanning several row sets becomes an
// AutoJoinV for the auto-join passes to settle.
func ReadLP(ctx *Context, plan lp.Plan) (*qsu.Graph, error) {
	t := &translator{
		ctx:     ctx,
		g:       qsu.New(),
		env:     make(map[string]binding),
		treeEnv: make(map[string]treeBinding),
		reads:   make(map[string]names.Symbol),
	}
	root, err := t.translate(plan)
	if err != nil {
		return nil, err
	}
	t.g.Root = root
	return t.g, nil
}

type binding struct {
	sym  names.Symbol
	plan lp.Plan
}

type treeBinding struct {
	node qscript.Node
	plan lp.Plan
}

type translator struct {
	ctx     *Context
	g       *qsu.Graph
	env     map[string]binding
	treeEnv map[string]treeBinding
	reads   map[string]names.Symbol
	unrefd  names.Symbol
}

func (t *translator) install(v qsu.Vertex) names.Symbol {
	return t.g.Install(t.ctx.Names, v)
}

// unref returns the shared empty sentinel source.
func (t *translator) unref() names.Symbol {
	if t.unrefd == "" {
		t.unrefd = t.install(&qsu.UnreferencedV{})
	}
	return t.unrefd
}

func (t *translator) translate(p lp.Plan) (names.Symbol, error) {
	switch p := p.(type) {
	case *lp.Read:
		if p.Path.IsRoot() {
			return "", planerr.E(planerr.NoFilePathFound, "read of the store root")
		}
		key := p.Path.String()
		if sym, ok := t.reads[key]; ok {
			return sym, nil
		}
		sym := t.install(&qsu.ShiftedReadV{Path: p.Path, IDStatus: qscript.ExcludeID})
		t.reads[key] = sym
		return sym, nil
	case *lp.Constant:
		lit, err := literal(p.Value)
		if err != nil {
			return "", err
		}
		return t.install(&qsu.MapV{Src: t.unref(), Fn: lit}), nil
	case *lp.Free:
		b, ok := t.env[p.Name]
		if !ok {
			return "", planerr.E(planerr.UnboundVariable, "variable %q", p.Name)
		}
		return b.sym, nil
	case *lp.Let:
		formSym, err := t.translate(p.Form)
		if err != nil {
			return "", err
		}
		saved, had := t.env[p.Name]
		t.env[p.Name] = binding{sym: formSym, plan: p.Form}
		inSym, err := t.translate(p.In)
		if had {
			t.env[p.Name] = saved
		} else {
			delete(t.env, p.Name)
		}
		return inSym, err
	case *lp.Invoke:
		return t.invoke(p)
	case *lp.Sort:
		srcSym, err := t.translate(p.Src)
		if err != nil {
			return "", err
		}
		keys := make([]qscript.SortKey, 0, len(p.Keys))
		for _, key := range p.Keys {
			expr, err := t.scalar(key.Expr, srcSym, p.Src)
			if err != nil {
				return "", err
			}
			keys = append(keys, qscript.SortKey{Expr: expr, Order: key.Order})
		}
		if len(keys) == 0 {
			return "", planerr.E(planerr.MalformedInput, "sort with no keys")
		}
		return t.install(&qsu.SortV{Src: srcSym, Keys: keys}), nil
	case *lp.Union:
		left, err := t.tree(p.Left)
		if err != nil {
			return "", err
		}
		right, err := t.tree(p.Right)
		if err != nil {
			return "", err
		}
		return t.install(&qsu.UnionV{Src: t.unref(), Left: left, Right: right}), nil
	case *lp.Subset:
		srcSym, err := t.translate(p.Src)
		if err != nil {
			return "", err
		}
		count := &qscript.Map{Src: &qscript.Hole{}, Fn: mapfunc.Int(p.Count)}
		return t.install(&qsu.SubsetV{
			Src:   srcSym,
			From:  &qscript.Hole{},
			Op:    p.Op,
			Count: count,
		}), nil
	case *lp.Join:
		left, err := t.tree(p.Left)
		if err != nil {
			return "", err
		}
		right, err := t.tree(p.Right)
		if err != nil {
			return "", err
		}
		on, err := t.joinScalar(p.Cond, p.LeftName, p.RightName)
		if err != nil {
			return "", err
		}
		combine := &mapfunc.ConcatMaps{
			LHS: mapfunc.MakeMapS(p.LeftName, &mapfunc.LeftSide{}),
			RHS: mapfunc.MakeMapS(p.RightName, &mapfunc.RightSide{}),
		}
		return t.install(&qsu.ThetaJoinV{
			Src:     t.unref(),
			Left:    left,
			Right:   right,
			On:      on,
			Join:    p.Type,
			Combine: combine,
		}), nil
	case *lp.Typecheck:
		srcSym, err := t.translate(p.Expr)
		if err != nil {
			return "", err
		}
		cont, err := t.scalar(p.Cont, srcSym, p.Expr)
		if err != nil {
			return "", err
		}
		fallback, err := t.scalar(p.Fallback, srcSym, p.Expr)
		if err != nil {
			return "", err
		}
		guard := &mapfunc.Guard{Expr: &mapfunc.Hole{}, Type: p.Type, Then: cont, Else: fallback}
		return t.install(&qsu.UnaryV{Src: srcSym, Fn: guard}), nil
	default:
		return "", planerr.E(planerr.MalformedInput, "unknown plan node %T", p)
	}
}

func (t *translator) invoke(p *lp.Invoke) (names.Symbol, error) {
	switch {
	case p.Func == "where":
		if len(p.Args) != 2 {
			return "", planerr.E(planerr.MalformedInput, "where wants 2 arguments, has %d", len(p.Args))
		}
		srcSym, err := t.translate(p.Args[0])
		if err != nil {
			return "", err
		}
		pred, err := t.scalar(p.Args[1], srcSym, p.Args[0])
		if err != nil {
			return "", err
		}
		return t.install(&qsu.FilterV{Src: srcSym, Predicate: pred}), nil
	case p.Func == "group_by":
		if len(p.Args) < 2 {
			return "", planerr.E(planerr.MalformedInput, "group_by wants a source and keys")
		}
		srcSym, err := t.translate(p.Args[0])
		if err != nil {
			return "", err
		}
		keys := make([]mapfunc.Expr, 0, len(p.Args)-1)
		for _, arg := range p.Args[1:] {
			key, err := t.scalar(arg, srcSym, p.Args[0])
			if err != nil {
				return "", err
			}
			keys = append(keys, key)
		}
		return t.install(&qsu.GroupByV{Src: srcSym, Keys: keys}), nil
	case lp.IsReducer(p.Func):
		if len(p.Args) != 1 {
			return "", planerr.E(planerr.MalformedInput, "%s wants 1 argument, has %d", p.Func, len(p.Args))
		}
		srcSym, err := t.translate(p.Args[0])
		if err != nil {
			return "", err
		}
		return t.install(&qsu.ReduceV{
			Src:      srcSym,
			Reducers: []qscript.ReduceFunc{{Op: p.Func, Expr: &mapfunc.Hole{}}},
			Repair:   &mapfunc.ReducerRef{Index: 0},
		}), nil
	default:
		if rot, ok := lp.Rotation(p.Func); ok {
			if len(p.Args) != 1 {
				return "", planerr.E(planerr.MalformedInput, "%s wants 1 argument, has %d", p.Func, len(p.Args))
			}
			srcSym, err := t.translate(p.Args[0])
			if err != nil {
				return "", err
			}
			return t.install(&qsu.LeftShiftV{
				Src:      srcSym,
				Struct:   &mapfunc.Hole{},
				IDStatus: qscript.ExcludeID,
				Rot:      rot,
				Repair:   &mapfunc.RightTarget{},
			}), nil
		}
		return t.mapping(p)
	}
}

// mapping translates a scalar function application.  Constant arguments
// inline as literals; a single row-set argument yields a unary mapping;
// several row-set arguments yield an auto-join.
func (t *translator) mapping(p *lp.Invoke) (names.Symbol, error) {
	children := make([]mapfunc.Expr, len(p.Args))
	var sources []names.Symbol
	for i, arg := range p.Args {
		if c, ok := arg.(*lp.Constant); ok {
			lit, err := literal(c.Value)
			if err != nil {
				return "", err
			}
			children[i] = lit
			continue
		}
		sym, err := t.translate(arg)
		if err != nil {
			return "", err
		}
		idx := -1
		for k, src := range sources {
			if src == sym {
				idx = k
				break
			}
		}
		if idx < 0 {
			idx = len(sources)
			sources = append(sources, sym)
		}
		children[i] = &mapfunc.SideRef{Index: idx}
	}
	switch len(sources) {
	case 0:
		fn, err := buildMapping(p.Func, children)
		if err != nil {
			return "", err
		}
		return t.install(&qsu.MapV{Src: t.unref(), Fn: fn}), nil
	case 1:
		for i, child := range children {
			if _, ok := child.(*mapfunc.SideRef); ok {
				children[i] = &mapfunc.Hole{}
			}
		}
		fn, err := buildMapping(p.Func, children)
		if err != nil {
			return "", err
		}
		return t.install(&qsu.UnaryV{Src: sources[0], Fn: fn}), nil
	default:
		combine, err := buildMapping(p.Func, children)
		if err != nil {
			return "", err
		}
		return t.install(&qsu.AutoJoinV{Sources: sources, Combine: combine}), nil
	}
}

// scalar converts a plan used in expression position into a row function
// of the rows named by over.  The plan must be closed over that one row
// set: free references to any other row set are not representable.
func (t *translator) scalar(p lp.Plan, over names.Symbol, overPlan lp.Plan) (mapfunc.Expr, error) {
	if overPlan != nil && reflect.DeepEqual(p, overPlan) {
		return &mapfunc.Hole{}, nil
	}
	switch p := p.(type) {
	case *lp.Free:
		b, ok := t.env[p.Name]
		if !ok {
			return nil, planerr.E(planerr.UnboundVariable, "variable %q", p.Name)
		}
		if b.sym == over {
			return &mapfunc.Hole{}, nil
		}
		return nil, planerr.E(planerr.NonRepresentable, over, "expression references %q from another row set", p.Name)
	case *lp.Constant:
		return literal(p.Value)
	case *lp.Invoke:
		if p.Func == "where" || p.Func == "group_by" || lp.IsReducer(p.Func) {
			return nil, planerr.E(planerr.NonRepresentable, over, "relational %s in expression position", p.Func)
		}
		if _, ok := lp.Rotation(p.Func); ok {
			return nil, planerr.E(planerr.NonRepresentable, over, "shift %s in expression position", p.Func)
		}
		args := make([]mapfunc.Expr, 0, len(p.Args))
		for _, arg := range p.Args {
			e, err := t.scalar(arg, over, overPlan)
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}
		return buildMapping(p.Func, args)
	case *lp.Typecheck:
		expr, err := t.scalar(p.Expr, over, overPlan)
		if err != nil {
			return nil, err
		}
		cont, err := t.scalar(p.Cont, over, overPlan)
		if err != nil {
			return nil, err
		}
		fallback, err := t.scalar(p.Fallback, over, overPlan)
		if err != nil {
			return nil, err
		}
		return &mapfunc.Guard{Expr: expr, Type: p.Type, Then: cont, Else: fallback}, nil
	default:
		return nil, planerr.E(planerr.NonRepresentable, over, "plan node %T in expression position", p)
	}
}

// joinScalar converts a join condition, mapping the named sides to
// LeftSide and RightSide leaves.
func (t *translator) joinScalar(p lp.Plan, leftName, rightName string) (mapfunc.Expr, error) {
	switch p := p.(type) {
	case *lp.Free:
		switch p.Name {
		case leftName:
			return &mapfunc.LeftSide{}, nil
		case rightName:
			return &mapfunc.RightSide{}, nil
		}
		return nil, planerr.E(planerr.UnboundVariable, "join side %q", p.Name)
	case *lp.Constant:
		return literal(p.Value)
	case *lp.Invoke:
		args := make([]mapfunc.Expr, 0, len(p.Args))
		for _, arg := range p.Args {
			e, err := t.joinScalar(arg, leftName, rightName)
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}
		return buildMapping(p.Func, args)
	default:
		return nil, planerr.E(planerr.NonRepresentable, "plan node %T in join condition", p)
	}
}

func literal(value any) (mapfunc.Expr, error) {
	switch v := value.(type) {
	case string, int64, float64, bool, nil:
		return &mapfunc.Literal{Value: v}, nil
	case int:
		return mapfunc.Int(int64(v)), nil
	default:
		return nil, planerr.E(planerr.MalformedInput, "unsupported constant type %T", value)
	}
}
