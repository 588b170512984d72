// Package similarity implements exact cosine similarity search.
//
// The Engine scans a record corpus in fixed-size chunks evaluated in
// parallel, scoring each record by cosine similarity against the query with
// optional L2-norm memoization through NormCache. Results are ordered by
// descending score with ascending-id tie-breaks so output is deterministic.
//
// Zero vectors score 0.0 rather than producing NaN; an empty corpus produces
// an empty result set rather than an error.
package similarity
