package qscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var rotations = []Rotation{FlattenArray, FlattenMap, ShiftArray, ShiftMap}

func TestCompatibleIsReflexiveAndSymmetric(t *testing.T) {
	for _, r := range rotations {
		assert.True(t, r.Compatible(r), "%s not compatible with itself", r)
		for _, o := range rotations {
			assert.Equal(t, r.Compatible(o), o.Compatible(r), "%s vs %s", r, o)
		}
	}
}

func TestCompatiblePartitionsByAxis(t *testing.T) {
	assert.True(t, ShiftArray.Compatible(FlattenArray))
	assert.True(t, ShiftMap.Compatible(FlattenMap))
	assert.False(t, ShiftArray.Compatible(ShiftMap))
	assert.False(t, ShiftArray.Compatible(FlattenMap))
	assert.False(t, FlattenArray.Compatible(FlattenMap))
	// Exactly two classes.
	classes := make(map[ShiftType][]Rotation)
	for _, r := range rotations {
		classes[r.ShiftType()] = append(classes[r.ShiftType()], r)
	}
	assert.Len(t, classes, 2)
	assert.ElementsMatch(t, []Rotation{FlattenArray, ShiftArray}, classes[ShiftTypeArray])
	assert.ElementsMatch(t, []Rotation{FlattenMap, ShiftMap}, classes[ShiftTypeMap])
}

func TestCompareIsATotalOrder(t *testing.T) {
	for i, r := range rotations {
		assert.Zero(t, r.Compare(r))
		for _, o := range rotations[i+1:] {
			assert.Negative(t, r.Compare(o))
			assert.Positive(t, o.Compare(r))
		}
	}
}
