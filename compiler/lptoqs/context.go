package lptoqs

import (
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/provenance"
	"github.com/romanowski/quasar/compiler/qsu"
)

// Context carries the state threaded through the passes: the one symbol
// minting authority, the provenance map once ApplyProvenance has built
// it, and the debug sink.  Passes receive it by pointer and never copy
// it.
type Context struct {
	Names  *names.Generator
	Auth   provenance.Auth
	Tracer *Tracer
}

func NewContext(tracer *Tracer) *Context {
	return &Context{
		Names:  names.NewGenerator(),
		Tracer: tracer,
	}
}

// Authenticated pairs a graph with its provenance map.  It exists from
// ApplyProvenance onward.
type Authenticated struct {
	Graph *qsu.Graph
	Auth  provenance.Auth
}

// Researched is an authenticated graph whose identity accesses have been
// settled: Materialized lists the shifts and shifted reads whose
// identities were made first-class data by ReifyIdentities.
type Researched struct {
	Authenticated
	Materialized []names.Symbol
}
