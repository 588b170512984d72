// Package engine combines the persistent record store, performance caches,
// exact similarity search, and the LSH index behind one entry point.
//
// Ingestion is batch-atomic: each batch persists in a single store
// transaction before the norm cache, hot content cache, and LSH index are
// updated, so a batch either becomes fully searchable or not at all. Across
// batches there is no rollback; a mid-ingest failure leaves earlier batches
// committed and is reported with the failing batch's offset.
//
// Two search paths are offered. The exact path scans every stored record with
// cached norms. The approximate path asks the LSH index for a candidate set
// and re-scores only those candidates exactly, resolving each id through the
// hot cache with a store fallback so cache eviction never hides a record.
package engine
