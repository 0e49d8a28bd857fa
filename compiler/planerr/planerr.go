// Package planerr classifies the errors the compilation pipeline can
// raise.  No pass recovers from another pass's error: the first error
// aborts the pipeline and propagates to the caller with its kind and,
// when available, the symbol of the offending node.
package planerr

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/romanowski/quasar/compiler/names"
)

// A Kind represents a class of planner error.
type Kind int

const (
	Internal Kind = iota
	MalformedInput
	UnresolvedReference
	ProvenanceViolated
	UnexpectedConstruct
	UnboundVariable
	NoFilePathFound
	NonRepresentable
)

func (k Kind) String() string {
	switch k {
	case Internal:
		return "internal error"
	case MalformedInput:
		return "malformed logical plan"
	case UnresolvedReference:
		return "unresolved graph reference"
	case ProvenanceViolated:
		return "provenance invariant violated"
	case UnexpectedConstruct:
		return "unexpected construct"
	case UnboundVariable:
		return "unbound variable"
	case NoFilePathFound:
		return "no file path found"
	case NonRepresentable:
		return "not representable in an expression"
	}
	return "unknown error kind"
}

type Error struct {
	Kind   Kind
	Symbol names.Symbol
	Err    error
}

func (e *Error) Error() string {
	b := &bytes.Buffer{}
	b.WriteString(e.Kind.String())
	if e.Symbol != "" {
		fmt.Fprintf(b, " at %s", e.Symbol)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E generates an error from any mix of a Kind, a Symbol, an existing
// error, and a format string with arguments.  The format string and its
// arguments must come last, if present.
func E(args ...any) error {
	e := &Error{}
	for i, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case names.Symbol:
			e.Symbol = arg
		case error:
			e.Err = arg
		case string:
			e.Err = fmt.Errorf(arg, args[i+1:]...)
			return e
		default:
			return &Error{Kind: Internal, Err: fmt.Errorf("unknown type %T in planerr.E call", arg)}
		}
	}
	return e
}

// IsKind reports whether the first planner error in err's chain, as
// errors.As finds it, has the given kind.  Planner errors wrapped inside
// that one are not examined.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
