// Package testutil provides testing utilities for Stowage.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating deterministic dataset rows and
// random payload blobs from a seeded source.
//
// # Row Generation
//
//	rng := testutil.NewRNG(seed)
//	rows := rng.Rows(1000, 4096) // 1000 rows with 4 KiB payloads
//
// # Skewed Partition Assignment
//
//	parts := rng.Partitions(1000, []string{"train", "test", "validation"}, 1.5)
package testutil
