package compiler_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romanowski/quasar/compiler"
	"github.com/romanowski/quasar/compiler/lp"
	"github.com/romanowski/quasar/compiler/lptoqs"
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/order"
	"github.com/romanowski/quasar/pkg/field"
)

func letOver(path string, in func(row lp.Plan) lp.Plan) lp.Plan {
	return &lp.Let{
		Name: "t",
		Form: lp.NewRead(path),
		In:   in(lp.NewFree("t")),
	}
}

func requireTree(t *testing.T, want, got qscript.Node) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

// A minimal plan selecting one column compiles to exactly one shifted
// read and one map.
func TestCompileSingleColumn(t *testing.T) {
	tree, err := compiler.Compile(letOver("/db/cities", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("project_key", row, lp.NewConstant("city"))
	}))
	require.NoError(t, err)
	requireTree(t, &qscript.Map{
		Src: &qscript.ShiftedRead{Path: field.Slashed("/db/cities"), IDStatus: qscript.ExcludeID},
		Fn:  mapfunc.ProjectKeyS(&mapfunc.Hole{}, "city"),
	}, tree)
}

func TestCompileFilter(t *testing.T) {
	tree, err := compiler.Compile(letOver("/db/zips", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("where", row,
			lp.NewInvoke("gt",
				lp.NewInvoke("project_key", row, lp.NewConstant("pop")),
				lp.NewConstant(1000)))
	}))
	require.NoError(t, err)
	requireTree(t, &qscript.Filter{
		Src: &qscript.ShiftedRead{Path: field.Slashed("/db/zips"), IDStatus: qscript.ExcludeID},
		Predicate: mapfunc.NewBinaryExpr(">",
			mapfunc.ProjectKeyS(&mapfunc.Hole{}, "pop"),
			mapfunc.Int(1000)),
	}, tree)
}

// Scalar computation over one row set fuses back into a single map even
// though the plan spells it as two branches of the same read.
func TestCompileAutoJoinCollapses(t *testing.T) {
	tree, err := compiler.Compile(letOver("/db/zips", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("add",
			lp.NewInvoke("project_key", row, lp.NewConstant("a")),
			lp.NewInvoke("project_key", row, lp.NewConstant("b")))
	}))
	require.NoError(t, err)
	requireTree(t, &qscript.Map{
		Src: &qscript.ShiftedRead{Path: field.Slashed("/db/zips"), IDStatus: qscript.ExcludeID},
		Fn: mapfunc.NewBinaryExpr("+",
			mapfunc.ProjectKeyS(&mapfunc.Hole{}, "a"),
			mapfunc.ProjectKeyS(&mapfunc.Hole{}, "b")),
	}, tree)
}

func TestCompileGroupedSum(t *testing.T) {
	tree, err := compiler.Compile(letOver("/db/zips", func(row lp.Plan) lp.Plan {
		grouped := lp.NewInvoke("group_by", row,
			lp.NewInvoke("project_key", row, lp.NewConstant("state")))
		return lp.NewInvoke("sum", lp.NewInvoke("project_key", grouped, lp.NewConstant("pop")))
	}))
	require.NoError(t, err)
	requireTree(t, &qscript.Reduce{
		Src:     &qscript.ShiftedRead{Path: field.Slashed("/db/zips"), IDStatus: qscript.ExcludeID},
		Buckets: []mapfunc.Expr{mapfunc.ProjectKeyS(&mapfunc.Hole{}, "state")},
		Reducers: []qscript.ReduceFunc{
			{Op: "sum", Expr: mapfunc.ProjectKeyS(&mapfunc.Hole{}, "pop")},
		},
		Repair: &mapfunc.ReducerRef{Index: 0},
	}, tree)
}

func TestCompileDistinctIdiom(t *testing.T) {
	tree, err := compiler.Compile(letOver("/db/zips", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("arbitrary",
			lp.NewInvoke("group_by", row,
				lp.NewInvoke("project_key", row, lp.NewConstant("city"))))
	}))
	require.NoError(t, err)
	key := mapfunc.ProjectKeyS(&mapfunc.Hole{}, "city")
	requireTree(t, &qscript.Reduce{
		Src:      &qscript.ShiftedRead{Path: field.Slashed("/db/zips"), IDStatus: qscript.ExcludeID},
		Buckets:  []mapfunc.Expr{key},
		Reducers: []qscript.ReduceFunc{{Op: "arbitrary", Expr: key}},
		Repair:   &mapfunc.ReducerRef{Index: 0},
	}, tree)
}

func TestCompileSort(t *testing.T) {
	tree, err := compiler.Compile(&lp.Let{
		Name: "t",
		Form: lp.NewRead("/db/zips"),
		In: &lp.Sort{
			Src: lp.NewFree("t"),
			Keys: []lp.SortKey{{
				Expr:  lp.NewInvoke("project_key", lp.NewFree("t"), lp.NewConstant("pop")),
				Order: order.Desc,
			}},
		},
	})
	require.NoError(t, err)
	requireTree(t, &qscript.Sort{
		Src: &qscript.ShiftedRead{Path: field.Slashed("/db/zips"), IDStatus: qscript.ExcludeID},
		Keys: []qscript.SortKey{{
			Expr:  mapfunc.ProjectKeyS(&mapfunc.Hole{}, "pop"),
			Order: order.Desc,
		}},
	}, tree)
}

// Two shifts of one row set coalesce, expand into a guarded chain, and
// come out with the first shift's identity materialized for the guard.
func TestCompileTwoShifts(t *testing.T) {
	tree, err := compiler.Compile(letOver("/db/zips", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("add",
			lp.NewInvoke("shift_array", row),
			lp.NewInvoke("shift_array", row))
	}))
	require.NoError(t, err)

	root, ok := tree.(*qscript.Map)
	require.True(t, ok)
	assert.Equal(t, mapfunc.Expr(mapfunc.NewBinaryExpr("+",
		mapfunc.ProjectKeyS(&mapfunc.Hole{}, "0"),
		mapfunc.ProjectKeyS(&mapfunc.Hole{}, "1"))), root.Fn)

	top, ok := root.Src.(*qscript.LeftShift)
	require.True(t, ok)
	assert.Equal(t, qscript.ShiftTypeArray, top.Shift)
	assert.Equal(t, qscript.IncludeID, top.IDStatus)
	cond, ok := top.Repair.(*mapfunc.Cond)
	require.True(t, ok, "compatible shifts must be identity guarded")
	assert.Equal(t, mapfunc.Expr(mapfunc.NewBinaryExpr("==",
		mapfunc.ProjectKeyS(&mapfunc.LeftTarget{}, "identity"),
		mapfunc.ProjectIndexI(&mapfunc.RightTarget{}, 0))), cond.If)
	assert.Equal(t, mapfunc.Expr(&mapfunc.Undefined{}), cond.Else)
	// The chain addresses the preserved original through the wrapper.
	assert.Equal(t,
		mapfunc.Expr(mapfunc.ProjectKeyS(mapfunc.ProjectKeyS(&mapfunc.Hole{}, "value"), "original")),
		top.Struct)

	base, ok := top.Src.(*qscript.LeftShift)
	require.True(t, ok)
	assert.Equal(t, qscript.IncludeID, base.IDStatus)
	requireTree(t, &qscript.ShiftedRead{Path: field.Slashed("/db/zips"), IDStatus: qscript.ExcludeID}, base.Src)
	// The base shift tags rows with their identity for the guard above.
	wantBase := &mapfunc.ConcatMaps{
		LHS: mapfunc.MakeMapS("identity", mapfunc.ProjectIndexI(&mapfunc.RightTarget{}, 0)),
		RHS: mapfunc.MakeMapS("value", &mapfunc.ConcatMaps{
			LHS: mapfunc.MakeMapS("original", &mapfunc.LeftTarget{}),
			RHS: mapfunc.MakeMapS("0", mapfunc.ProjectIndexI(&mapfunc.RightTarget{}, 1)),
		}),
	}
	assert.Equal(t, mapfunc.Expr(wantBase), base.Repair)
}

func TestCompileIncompatibleShiftsUnguarded(t *testing.T) {
	tree, err := compiler.Compile(letOver("/db/zips", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("add",
			lp.NewInvoke("shift_array", row),
			lp.NewInvoke("shift_map", row))
	}))
	require.NoError(t, err)

	top, ok := tree.(*qscript.Map).Src.(*qscript.LeftShift)
	require.True(t, ok)
	assert.Equal(t, qscript.ShiftTypeMap, top.Shift)
	_, guarded := top.Repair.(*mapfunc.Cond)
	assert.False(t, guarded)
	// Without a guard nothing needs identities.
	assert.Equal(t, qscript.ExcludeID, top.IDStatus)
	base := top.Src.(*qscript.LeftShift)
	assert.Equal(t, qscript.ExcludeID, base.IDStatus)
}

func TestCompileUnion(t *testing.T) {
	tree, err := compiler.Compile(&lp.Union{
		Left:  lp.NewRead("/db/a"),
		Right: lp.NewRead("/db/b"),
	})
	require.NoError(t, err)
	requireTree(t, &qscript.Union{
		Src:   &qscript.Unreferenced{},
		Left:  &qscript.ShiftedRead{Path: field.Slashed("/db/a"), IDStatus: qscript.ExcludeID},
		Right: &qscript.ShiftedRead{Path: field.Slashed("/db/b"), IDStatus: qscript.ExcludeID},
	}, tree)
}

func TestCompileCrossRowSets(t *testing.T) {
	tree, err := compiler.Compile(&lp.Let{
		Name: "a",
		Form: lp.NewRead("/db/a"),
		In: &lp.Let{
			Name: "b",
			Form: lp.NewRead("/db/b"),
			In: lp.NewInvoke("add",
				lp.NewInvoke("project_key", lp.NewFree("a"), lp.NewConstant("x")),
				lp.NewInvoke("project_key", lp.NewFree("b"), lp.NewConstant("y"))),
		},
	})
	require.NoError(t, err)
	root, ok := tree.(*qscript.Map)
	require.True(t, ok)
	join, ok := root.Src.(*qscript.ThetaJoin)
	require.True(t, ok)
	assert.Equal(t, qscript.Inner, join.Join)
	assert.Equal(t, mapfunc.Expr(mapfunc.Bool(true)), join.On)
}

func TestGraduateIsIdempotentOnItsRange(t *testing.T) {
	tree, err := compiler.Compile(letOver("/db/cities", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("project_key", row, lp.NewConstant("city"))
	}))
	require.NoError(t, err)
	once, err := lptoqs.Educate(tree)
	require.NoError(t, err)
	twice, err := lptoqs.Educate(once)
	require.NoError(t, err)
	requireTree(t, once, twice)
}

func TestCompileRejectsUnboundVariable(t *testing.T) {
	_, err := compiler.Compile(lp.NewFree("nope"))
	require.Error(t, err)
}
