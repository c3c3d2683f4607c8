package lattice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarlib/opat"
	"github.com/stellarlib/opat/lattice"
	"github.com/stellarlib/opat/testutil"
)

func gridLattice(t *testing.T, xs, ys []float64) (*opat.Container, *lattice.Lattice) {
	t.Helper()
	c := testutil.GridContainer(t, testutil.NewRNG(42), xs, ys)
	l, err := lattice.New(c)
	require.NoError(t, err)
	return c, l
}

func TestGetNearestGridPoint(t *testing.T) {
	// Grid {0.6, 0.65, 0.7} x {0.05, 0.0564}: the query (0.63, 0.05) is
	// closer to 0.65 than to 0.6 on the first axis and exact on the second.
	c, l := gridLattice(t, []float64{0.6, 0.65, 0.7}, []float64{0.05, 0.0564})
	require.Equal(t, 6, l.Len())

	card, err := l.Get([]float64{0.63, 0.05})
	require.NoError(t, err)

	want, err := c.Card([]float64{0.65, 0.05})
	require.NoError(t, err)
	assert.Same(t, want, card)
}

func TestGetTieTowardLower(t *testing.T) {
	// 0.625 is equidistant from 0.6 and 0.65; ties resolve to the lower
	// coordinate.
	c, l := gridLattice(t, []float64{0.6, 0.65, 0.7}, []float64{0.05, 0.0564})

	card, err := l.Get([]float64{0.625, 0.05})
	require.NoError(t, err)

	want, err := c.Card([]float64{0.6, 0.05})
	require.NoError(t, err)
	assert.Same(t, want, card)
}

func TestGetExactHit(t *testing.T) {
	c, l := gridLattice(t, []float64{0.6, 0.65, 0.7}, []float64{0.05, 0.0564})

	card, err := l.Get([]float64{0.7, 0.0564})
	require.NoError(t, err)

	want, err := c.Card([]float64{0.7, 0.0564})
	require.NoError(t, err)
	assert.Same(t, want, card)
}

func TestGetOutOfRange(t *testing.T) {
	_, l := gridLattice(t, []float64{0.6, 0.65, 0.7}, []float64{0.05, 0.0564})

	_, err := l.Get([]float64{0.75, 0.05})
	var oor *lattice.ErrOutOfRange
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 0, oor.Axis)
	assert.Equal(t, 0.75, oor.Value)
	assert.Equal(t, 0.6, oor.Min)
	assert.Equal(t, 0.7, oor.Max)

	_, err = l.Get([]float64{0.65, 0.01})
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 1, oor.Axis)
}

func TestGetDimensionMismatch(t *testing.T) {
	_, l := gridLattice(t, []float64{0.6, 0.7}, []float64{0.05})

	_, err := l.Get([]float64{0.6})
	var dim *opat.ErrInvalidDimension
	require.ErrorAs(t, err, &dim)
	assert.Equal(t, 2, dim.Expected)
	assert.Equal(t, 1, dim.Actual)
}

func TestGetNonGridMiss(t *testing.T) {
	// An L-shaped card set: the nearest-per-axis combination (0.7, 0.1) has
	// no card.
	rng := testutil.NewRNG(7)
	c, err := opat.New(2)
	require.NoError(t, err)
	for _, v := range [][2]float64{{0.6, 0.05}, {0.6, 0.1}, {0.7, 0.05}} {
		table := testutil.RandomTable(t, rng, 3, 2, 1)
		require.NoError(t, c.AddTable(v[:], "data", table))
	}

	l, err := lattice.New(c)
	require.NoError(t, err)

	_, err = l.Get([]float64{0.69, 0.09})
	assert.ErrorIs(t, err, opat.ErrCardNotFound)
}

func TestBracket(t *testing.T) {
	_, l := gridLattice(t, []float64{0.6, 0.65, 0.7}, []float64{0.05, 0.0564})

	brackets, err := l.Bracket([]float64{0.63, 0.052})
	require.NoError(t, err)
	require.Len(t, brackets, 2)
	assert.Equal(t, lattice.AxisBracket{Lower: 0.6, Upper: 0.65}, brackets[0])
	assert.Equal(t, lattice.AxisBracket{Lower: 0.05, Upper: 0.0564}, brackets[1])
}

func TestBracketExactCoordinate(t *testing.T) {
	_, l := gridLattice(t, []float64{0.6, 0.65, 0.7}, []float64{0.05, 0.0564})

	brackets, err := l.Bracket([]float64{0.65, 0.05})
	require.NoError(t, err)
	assert.Equal(t, lattice.AxisBracket{Lower: 0.65, Upper: 0.65}, brackets[0])
	assert.Equal(t, lattice.AxisBracket{Lower: 0.05, Upper: 0.05}, brackets[1])
}

func TestBracketOutOfRange(t *testing.T) {
	_, l := gridLattice(t, []float64{0.6, 0.7}, []float64{0.05, 0.0564})

	_, err := l.Bracket([]float64{0.6, 0.06})
	var oor *lattice.ErrOutOfRange
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 1, oor.Axis)
}

func TestNeighborhood(t *testing.T) {
	c, l := gridLattice(t, []float64{0.6, 0.65, 0.7}, []float64{0.05, 0.0564})

	cards, err := l.Neighborhood([]float64{0.63, 0.052})
	require.NoError(t, err)
	require.Len(t, cards, 4)

	want := [][2]float64{
		{0.6, 0.05}, {0.6, 0.0564},
		{0.65, 0.05}, {0.65, 0.0564},
	}
	for i, wv := range want {
		expect, err := c.Card(wv[:])
		require.NoError(t, err)
		assert.Same(t, expect, cards[i])
	}
}

func TestNeighborhoodOnGridPoint(t *testing.T) {
	c, l := gridLattice(t, []float64{0.6, 0.65, 0.7}, []float64{0.05, 0.0564})

	cards, err := l.Neighborhood([]float64{0.65, 0.0564})
	require.NoError(t, err)
	require.Len(t, cards, 1)

	want, err := c.Card([]float64{0.65, 0.0564})
	require.NoError(t, err)
	assert.Same(t, want, cards[0])
}

func TestAxisValuesSorted(t *testing.T) {
	_, l := gridLattice(t, []float64{0.7, 0.6, 0.65}, []float64{0.0564, 0.05})

	assert.Equal(t, []float64{0.6, 0.65, 0.7}, l.AxisValues(0))
	assert.Equal(t, []float64{0.05, 0.0564}, l.AxisValues(1))
}

func TestEmptyContainer(t *testing.T) {
	c, err := opat.New(2)
	require.NoError(t, err)

	l, err := lattice.New(c)
	require.NoError(t, err)

	_, err = l.Get([]float64{0.5, 0.5})
	assert.ErrorIs(t, err, opat.ErrCardNotFound)
}
