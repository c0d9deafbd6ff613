// Package testutil provides testing utilities for slabkit.
//
// This package is intended for use in tests, benchmarks and the stress
// example only. It provides a seeded thread-safe random source for request
// sizes and payloads, helpers to build regions with a chosen alignment, and
// checks for overlapping allocations.
//
//	rng := testutil.NewRNG(seed)
//	size := rng.Size(1, 512)
//	r := testutil.Region(t, 4096)
//	testutil.RequireDisjoint(t, bufs)
package testutil
