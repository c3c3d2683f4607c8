// Package lattice provides a read-only spatial index over a container's card
// keys. It answers nearest-grid-point and bracketing queries over the index
// vector space, and returns the corner cards of a bracketing cell for
// caller-side interpolation.
//
// A lattice snapshots the container at build time. Rebuild after adding
// cards.
//
// Example:
//
//	l, err := lattice.New(container)
//	if err != nil {
//		...
//	}
//	card, err := l.Get([]float64{0.63, 0.05})
package lattice
