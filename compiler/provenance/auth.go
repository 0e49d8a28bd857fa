package provenance

import (
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/planerr"
	"github.com/romanowski/quasar/compiler/qsu"
)

// Auth maps every graph symbol to its provenance.  Once ApplyProvenance
// has run, the domain of the map covers every symbol reachable from the
// graph root, and every pass that renames or installs vertices keeps it
// that way.
type Auth map[names.Symbol]Dims

func NewAuth() Auth {
	return make(Auth)
}

// Lookup returns the provenance recorded for sym.  A missing entry after
// provenance has been declared complete is an invariant violation.
func (a Auth) Lookup(sym names.Symbol) (Dims, error) {
	dims, ok := a[sym]
	if !ok {
		return nil, planerr.E(planerr.ProvenanceViolated, sym, "no provenance entry")
	}
	return dims, nil
}

// Rename moves from's entry to to, used when a pass supplants a vertex.
func (a Auth) Rename(from, to names.Symbol) {
	if dims, ok := a[from]; ok {
		a[to] = dims
		delete(a, from)
	}
}

// Verify checks that the auth domain covers every symbol reachable from
// the graph root, reporting all missing entries together.
func (a Auth) Verify(g *qsu.Graph) error {
	reachable, err := g.Reachable()
	if err != nil {
		return err
	}
	var errs error
	for sym := range reachable {
		if _, ok := a[sym]; !ok {
			errs = multierr.Append(errs, planerr.E(planerr.ProvenanceViolated, sym, "no provenance entry"))
		}
	}
	return errs
}

func (a Auth) Copy() Auth {
	out := make(Auth, len(a))
	for sym, dims := range a {
		out[sym] = dims.Copy()
	}
	return out
}

func (a Auth) String() string {
	syms := make([]string, 0, len(a))
	for sym := range a {
		syms = append(syms, string(sym))
	}
	sort.Strings(syms)
	var b strings.Builder
	for _, sym := range syms {
		b.WriteString(sym)
		b.WriteString(" -> ")
		b.WriteString(a[names.Symbol(sym)].String())
		b.WriteByte('\n')
	}
	return b.String()
}
