package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	w, err := Parse("asc")
	require.NoError(t, err)
	assert.Equal(t, Asc, w)
	w, err = Parse("DESC")
	require.NoError(t, err)
	assert.Equal(t, Desc, w)
	_, err = Parse("sideways")
	require.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	b, err := Desc.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"desc"`, string(b))
	var w Which
	require.NoError(t, w.UnmarshalJSON(b))
	assert.Equal(t, Desc, w)
}
