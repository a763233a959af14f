package argo

import (
	"context"
	"fmt"

	"github.com/floatlabs/floatchat/internal/store"
)

// DefaultLimit is applied when a query carries no positive limit. There is
// no upper cap; callers asking for more get more.
const DefaultLimit = 100

// QueryRecords runs a filtered query against the store. The returned slice
// is never nil.
func (s *Service) QueryRecords(ctx context.Context, spec store.FilterSpec) ([]store.Record, error) {
	if spec.Limit <= 0 {
		spec.Limit = DefaultLimit
	}
	records, err := s.store.Query(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	if records == nil {
		records = []store.Record{}
	}
	return records, nil
}
