// Package provenance tracks, for every vertex of a QSU graph, which
// input identities a row at that vertex originates from.  A provenance is
// a small polynomial of identity axes and structural coordinates; the
// auto-join passes compare provenances to decide whether two plan
// branches range over the same rows, and the shift passes use identity
// axes to suppress spurious cross-products.
package provenance

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
)

// Prov is one dimension of a provenance polynomial.
type Prov interface {
	provNode()
}

type (
	// ID is an identity axis introduced by the shift or read named Of.
	ID struct {
		Of names.Symbol
	}
	// Proj is a structural coordinate: rows at this vertex come from the
	// named projection of the input.
	Proj struct {
		Key string
	}
	// Value is an expression-level dimension, introduced by grouping.
	Value struct {
		Expr mapfunc.Expr
	}
	// Both conjoins the dimensions of the two sides of a join.
	Both struct {
		L Prov
		R Prov
	}
	// OneOf merges the dimensions of the two sides of a union.
	OneOf struct {
		L Prov
		R Prov
	}
)

func (*ID) provNode()    {}
func (*Proj) provNode()  {}
func (*Value) provNode() {}
func (*Both) provNode()  {}
func (*OneOf) provNode() {}

// Dims is a dimension stack, outermost first.  An empty stack is the
// provenance of an unreferenced or constant source.
type Dims []Prov

func (d Dims) Copy() Dims {
	if d == nil {
		return nil
	}
	out := make(Dims, len(d))
	copy(out, d)
	return out
}

// Equal compares two stacks structurally.
func (d Dims) Equal(o Dims) bool {
	if len(d) != len(o) {
		return false
	}
	for k := range d {
		if !reflect.DeepEqual(d[k], o[k]) {
			return false
		}
	}
	return true
}

// IDs returns the identity axes of d, outermost first, descending into
// join and union dimensions.
func (d Dims) IDs() []names.Symbol {
	var out []names.Symbol
	var visit func(p Prov)
	visit = func(p Prov) {
		switch p := p.(type) {
		case *ID:
			out = append(out, p.Of)
		case *Both:
			visit(p.L)
			visit(p.R)
		case *OneOf:
			visit(p.L)
			visit(p.R)
		}
	}
	for _, p := range d {
		visit(p)
	}
	return out
}

// Shift appends the identity axis minted by the shift named sym.
func Shift(sym names.Symbol, src Dims) Dims {
	return append(src.Copy(), &ID{Of: sym})
}

// Project appends the structural coordinate for key.
func Project(key string, src Dims) Dims {
	return append(src.Copy(), &Proj{Key: key})
}

// Group replaces a provenance with the expression dimensions of the
// bucket list; rows of a reduce originate from their bucket values.
func Group(buckets []mapfunc.Expr) Dims {
	out := make(Dims, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, &Value{Expr: b})
	}
	return out
}

// Join multiplies two provenances, zipping aligned dimensions with Both
// and keeping the longer tail.
func Join(l, r Dims) Dims {
	return zip(l, r, func(a, b Prov) Prov { return &Both{L: a, R: b} })
}

// Union merges two provenances, zipping aligned dimensions with OneOf
// and keeping the longer tail.
func Union(l, r Dims) Dims {
	return zip(l, r, func(a, b Prov) Prov { return &OneOf{L: a, R: b} })
}

func zip(l, r Dims, combine func(a, b Prov) Prov) Dims {
	n := len(l)
	if len(r) > n {
		n = len(r)
	}
	out := make(Dims, 0, n)
	for k := 0; k < n; k++ {
		switch {
		case k >= len(l):
			out = append(out, r[k])
		case k >= len(r):
			out = append(out, l[k])
		case reflect.DeepEqual(l[k], r[k]):
			out = append(out, l[k])
		default:
			out = append(out, combine(l[k], r[k]))
		}
	}
	return out
}

func (d Dims) String() string {
	parts := make([]string, 0, len(d))
	for _, p := range d {
		parts = append(parts, canon(p))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func canon(p Prov) string {
	switch p := p.(type) {
	case *ID:
		return fmt.Sprintf("id(%s)", p.Of)
	case *Proj:
		return fmt.Sprintf("prj(%q)", p.Key)
	case *Value:
		return fmt.Sprintf("val(%s)", mapfunc.Canon(p.Expr))
	case *Both:
		return fmt.Sprintf("(%s & %s)", canon(p.L), canon(p.R))
	case *OneOf:
		return fmt.Sprintf("(%s | %s)", canon(p.L), canon(p.R))
	}
	return fmt.Sprintf("!unknown(%T)", p)
}
