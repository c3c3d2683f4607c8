package testutil

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stellarlib/opat"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Float64 returns a pseudo-random number in [0, 1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillUniform fills vec with uniform values in [0, 1).
func (r *RNG) FillUniform(vec []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range vec {
		vec[i] = r.rand.Float64()
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// RandomTable builds a rows by cols by depth table with linspace axes and
// uniform random data.
func RandomTable(tb testing.TB, rng *RNG, rows, cols, depth int) *opat.Table {
	tb.Helper()

	data := make([]float64, rows*cols*depth)
	rng.FillUniform(data)
	table, err := opat.NewTable(opat.TableSpec{
		RowValues:    Linspace(3.75, 8.7, rows),
		ColumnValues: Linspace(-8.0, 1.0, cols),
		Data:         data,
		Depth:        depth,
		RowName:      "logT",
		ColumnName:   "logR",
	})
	if err != nil {
		tb.Fatalf("building random table: %v", err)
	}
	return table
}

// GridContainer builds a two-dimensional container with one card per point
// of the Cartesian grid xs by ys, each carrying a single "data" table.
func GridContainer(tb testing.TB, rng *RNG, xs, ys []float64, opts ...opat.Option) *opat.Container {
	tb.Helper()

	c, err := opat.New(2, opts...)
	if err != nil {
		tb.Fatalf("building container: %v", err)
	}
	for _, x := range xs {
		for _, y := range ys {
			table := RandomTable(tb, rng, 4, 3, 1)
			if err := c.AddTable([]float64{x, y}, "data", table); err != nil {
				tb.Fatalf("adding table at (%g, %g): %v", x, y, err)
			}
		}
	}
	return c
}
