package names

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// A Symbol names a node in a QSU graph.  Symbols are opaque; the only way
// to obtain one that isn't already in a graph is through a Generator.
type Symbol string

// Generator is the single authority for fresh symbols within one
// compilation.  Symbols are numbered so that traces read in allocation
// order.  Each generator also carries a unique run tag, returned by Run;
// the symbols themselves do not include it.
type Generator struct {
	run string
	n   int
}

func NewGenerator() *Generator {
	return &Generator{run: ksuid.New().String()}
}

// Fresh returns a symbol distinct from every symbol this generator has
// returned before.
func (g *Generator) Fresh() Symbol {
	sym := Symbol(fmt.Sprintf("qsu%d", g.n))
	g.n++
	return sym
}

// Run returns the unique tag identifying this generator's compilation run.
func (g *Generator) Run() string {
	return g.run
}
