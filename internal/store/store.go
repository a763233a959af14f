package store

import "context"

// Store is the measurement record store. The read side is shared across
// concurrent requests; the write side is append-only and driven by the
// ingest command.
type Store interface {
	// Insert appends records, assigning each a unique monotonically
	// increasing id. Input Record ids are ignored.
	Insert(ctx context.Context, records []Record) error

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// Summarize computes the dataset-wide aggregates in one pass.
	Summarize(ctx context.Context) (*Summary, error)

	// Query returns records matching every bound in spec, ordered by time
	// descending (id descending as tiebreak), truncated to spec.Limit.
	// Contradictory bounds (min > max) yield an empty result, not an error.
	Query(ctx context.Context, spec FilterSpec) ([]Record, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}
