// Package postgres contains the PostgreSQL implementations of the store
// interfaces. The job store is the heart of the pipeline: leasing rides on
// FOR UPDATE SKIP LOCKED so concurrent workers never claim the same row, and
// completion folds the lease precondition into the UPDATE itself so a stale
// worker can never mutate state it no longer owns.
package postgres
