// Package lptoqs compiles a logical plan into the educated QScript tree
// through a fixed sequence of normalizing, rewriting, and lowering
// passes over a symbol-indexed graph.  Each pass preserves acyclicity
// and symbol uniqueness, keeps the provenance map covering the reachable
// graph once it exists, and leaves the modeled query's meaning intact.
package lptoqs

import (
	"github.com/romanowski/quasar/compiler/lp"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/compiler/qsu"
)

type pass struct {
	name string
	fn   func(*Context, *qsu.Graph) error
}

// The pipeline.  ApplyProvenance establishes the auth map; the driver
// refreshes it after every later pass so structural rewrites cannot
// leave downstream dimensions stale.
var passes = []pass{
	{"rewrite_groupby_arrays", RewriteGroupByArrays},
	{"eliminate_unary", EliminateUnary},
	{"recognize_distinct", RecognizeDistinct},
	{"extract_freemap", ExtractFreeMap},
	{"apply_provenance", ApplyProvenance},
	{"reify_buckets", ReifyBuckets},
	{"minimize_autojoins", MinimizeAutoJoins},
	{"reify_autojoins", ReifyAutoJoins},
	{"expand_shifts", ExpandShifts},
	{"resolve_own_identities", ResolveOwnIdentities},
}

// Run compiles plan to its educated tree.
func Run(ctx *Context, plan lp.Plan) (qscript.Node, error) {
	ctx.Tracer.Plan(plan)
	g, err := ReadLP(ctx, plan)
	if err != nil {
		return nil, err
	}
	ctx.Tracer.Pass("read_lp", g, ctx.Auth)
	if err := g.Verify(); err != nil {
		return nil, err
	}
	for _, p := range passes {
		if err := p.fn(ctx, g); err != nil {
			return nil, err
		}
		if ctx.Auth != nil {
			if err := computeProvenance(ctx, g); err != nil {
				return nil, err
			}
		}
		ctx.Tracer.Pass(p.name, g, ctx.Auth)
		if err := g.Verify(); err != nil {
			return nil, err
		}
	}
	researched, err := ReifyIdentities(ctx, g)
	if err != nil {
		return nil, err
	}
	ctx.Tracer.Pass("reify_identities", researched.Graph, researched.Auth)
	return Graduate(ctx, researched.Graph)
}
