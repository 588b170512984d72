// Package lsh implements locality-sensitive hashing via signed random
// projections for approximate angular-similarity search.
//
// A Hasher draws a frozen set of Gaussian hyperplanes and maps a vector to a
// bit-string signature of the dot-product signs. Vectors at small angular
// distance collide with probability that rises as the signature shortens, so
// the bit count is a precision/recall knob. An Index stacks several
// independent tables; more tables union more buckets into the candidate set,
// raising recall at the cost of more exact re-scoring downstream.
//
// The index stores record ids only. Eviction is explicit: Trim drops whole
// buckets oldest-first under a total entry cap, and Clear resets everything.
package lsh
