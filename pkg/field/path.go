package field

import (
	"strings"
)

// A Path locates a dataset in the backing store.  The empty path (not nil)
// is the store root.
type Path []string

func New(name string) Path {
	return Path{name}
}

func NewRoot() Path {
	return Path{}
}

func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	return "/" + strings.Join(p, "/")
}

func (p Path) Leaf() string {
	return p[len(p)-1]
}

func (p Path) IsRoot() bool {
	return len(p) == 0
}

func (p Path) Equal(to Path) bool {
	if len(p) != len(to) {
		return false
	}
	for k := range p {
		if p[k] != to[k] {
			return false
		}
	}
	return true
}

func (p Path) HasPrefix(prefix Path) bool {
	return len(p) >= len(prefix) && prefix.Equal(p[:len(prefix)])
}

// Slashed parses a slash-separated dataset name into a Path.
func Slashed(s string) Path {
	s = strings.Trim(s, "/")
	if s == "" {
		return NewRoot()
	}
	return strings.Split(s, "/")
}

func (p Path) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

type List []Path

func (l List) String() string {
	names := make([]string, 0, len(l))
	for _, p := range l {
		names = append(names, p.String())
	}
	return strings.Join(names, ",")
}

func (l List) Has(in Path) bool {
	for _, p := range l {
		if p.Equal(in) {
			return true
		}
	}
	return false
}
