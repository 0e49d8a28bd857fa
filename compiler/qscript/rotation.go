package qscript

import "fmt"

// ShiftType is the public granularity of a shift carried on LeftShift
// nodes: whether the shifted value unnests as an array or as a map.
type ShiftType int

const (
	ShiftTypeArray ShiftType = iota
	ShiftTypeMap
)

func (t ShiftType) String() string {
	if t == ShiftTypeMap {
		return "map"
	}
	return "array"
}

// Rotation is the internal four-way granularity of a shift.  Its
// declaration order is the total order used to stably sort multi-shift
// entries so that equal rotations stay adjacent.  Compatible rotations of
// different kinds (FlattenArray and ShiftArray, say) are not adjacent in
// this order.
type Rotation int

const (
	FlattenArray Rotation = iota
	FlattenMap
	ShiftArray
	ShiftMap
)

func (r Rotation) String() string {
	switch r {
	case FlattenArray:
		return "flatten_array"
	case FlattenMap:
		return "flatten_map"
	case ShiftArray:
		return "shift_array"
	case ShiftMap:
		return "shift_map"
	}
	return fmt.Sprintf("rotation(%d)", int(r))
}

func (r Rotation) ShiftType() ShiftType {
	if r == FlattenMap || r == ShiftMap {
		return ShiftTypeMap
	}
	return ShiftTypeArray
}

// Compatible reports whether two rotations traverse the same axis: the
// flatten and shift forms of arrays are mutually compatible, as are the
// flatten and shift forms of maps.  Two compatible shifts over one source
// share identities instead of multiplying rows.
func (r Rotation) Compatible(o Rotation) bool {
	return r.ShiftType() == o.ShiftType()
}

// Compare orders rotations by the total order.
func (r Rotation) Compare(o Rotation) int {
	return int(r) - int(o)
}

// IDStatus selects whether a read or shift yields the value of each row,
// its identity, or both as an [identity, value] pair.
type IDStatus int

const (
	ExcludeID IDStatus = iota
	IncludeID
	IDOnly
)

func (s IDStatus) String() string {
	switch s {
	case IncludeID:
		return "include_id"
	case IDOnly:
		return "id_only"
	}
	return "exclude_id"
}

// JoinType is the usual four-way join classification.
type JoinType int

const (
	Inner JoinType = iota
	LeftOuter
	RightOuter
	FullOuter
)

func (t JoinType) String() string {
	switch t {
	case LeftOuter:
		return "left_outer"
	case RightOuter:
		return "right_outer"
	case FullOuter:
		return "full_outer"
	}
	return "inner"
}

// SubsetOp selects how Subset samples its count rows.
type SubsetOp int

const (
	Take SubsetOp = iota
	Drop
	Sample
)

func (o SubsetOp) String() string {
	switch o {
	case Drop:
		return "drop"
	case Sample:
		return "sample"
	}
	return "take"
}
