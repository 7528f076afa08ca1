package element

import (
	"testing"

	"github.com/hupe1980/subsurf/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriSurf(t *testing.T) {
	m, err := mesh.FromArray([][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, [][]int{{0, 1, 2}})
	require.NoError(t, err)

	ts, err := NewTriSurf(m)
	require.NoError(t, err)
	assert.Same(t, m, ts.Mesh())
	assert.Equal(t, RoleTriSurf, ts.Role())
	assert.Equal(t, 1, ts.NumTriangles())

	_, err = NewLineSet(m)
	var tme *TopologyMismatchError
	require.ErrorAs(t, err, &tme)
	assert.Equal(t, 2, tme.Want)
	assert.Equal(t, 3, tme.Got)
}

func TestLineSet(t *testing.T) {
	m, err := mesh.FromArray([][3]float64{{0, 0, 0}, {0, 0, -10}, {1, 0, -20}}, [][]int{{0, 1}, {1, 2}})
	require.NoError(t, err)

	_, err = NewTriSurf(m)
	assert.ErrorIs(t, err, ErrTopologyMismatch)

	ls, err := NewLineSet(m)
	require.NoError(t, err)
	assert.Equal(t, 2, ls.NumSegments())
	assert.Same(t, m, ls.Mesh())
}

func TestWrap(t *testing.T) {
	seg, err := mesh.FromArray([][3]float64{{0, 0, 0}, {1, 0, 0}}, [][]int{{0, 1}})
	require.NoError(t, err)
	e, err := Wrap(seg)
	require.NoError(t, err)
	assert.Equal(t, RoleLineSet, e.Role())

	quad, err := mesh.FromArray([][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}, [][]int{{0, 1, 2, 3}})
	require.NoError(t, err)
	_, err = Wrap(quad)
	assert.ErrorIs(t, err, ErrTopologyMismatch)

	_, err = NewTriSurf(nil)
	assert.Error(t, err)
}
