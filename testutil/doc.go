// Package testutil provides testing utilities for opat.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded RNG, axis generators, and builders for synthetic
// lookup-table containers whose cards cover a full Cartesian grid.
//
// # Synthetic Tables
//
//	rng := testutil.NewRNG(seed)
//	table := testutil.RandomTable(rng, 10, 8, 1)
//
// # Grid Containers
//
//	c := testutil.GridContainer(t, rng,
//		[]float64{0.6, 0.65, 0.7},
//		[]float64{0.05, 0.0564},
//	)
package testutil
