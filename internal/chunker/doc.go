// Package chunker splits document text into overlapping token windows for
// embedding. Tokenization is whitespace-based; each window advances by
// size-overlap tokens and the final window may run short. A configuration
// whose overlap meets or exceeds its size is rejected rather than looping.
package chunker
