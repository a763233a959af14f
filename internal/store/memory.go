package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store for tests and local development. It
// mirrors the ClickHouse implementation's semantics exactly, including null
// handling in filters and aggregates.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	nextID  uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (m *MemoryStore) Insert(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		r.ID = m.nextID
		m.nextID++
		r.Time = r.Time.UTC()
		m.records = append(m.records, r)
	}
	return nil
}

func (m *MemoryStore) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

func (m *MemoryStore) Summarize(_ context.Context) (*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := &Summary{Count: int64(len(m.records))}

	seen := map[string]struct{}{}
	for i, r := range m.records {
		if r.Platform != "" {
			seen[r.Platform] = struct{}{}
		}
		if i == 0 {
			sum.TimeMin, sum.TimeMax = r.Time, r.Time
			sum.DepthMin, sum.DepthMax = r.Depth, r.Depth
			sum.LatMin, sum.LatMax = r.Latitude, r.Latitude
			sum.LonMin, sum.LonMax = r.Longitude, r.Longitude
		} else {
			if r.Time.Before(sum.TimeMin) {
				sum.TimeMin = r.Time
			}
			if r.Time.After(sum.TimeMax) {
				sum.TimeMax = r.Time
			}
			sum.DepthMin = min(sum.DepthMin, r.Depth)
			sum.DepthMax = max(sum.DepthMax, r.Depth)
			sum.LatMin = min(sum.LatMin, r.Latitude)
			sum.LatMax = max(sum.LatMax, r.Latitude)
			sum.LonMin = min(sum.LonMin, r.Longitude)
			sum.LonMax = max(sum.LonMax, r.Longitude)
		}
	}

	sum.Platforms = make([]string, 0, len(seen))
	for p := range seen {
		sum.Platforms = append(sum.Platforms, p)
	}
	sort.Strings(sum.Platforms)

	sum.TempMin, sum.TempMax, sum.TempAvg = aggregate(m.records, func(r Record) *float64 { return r.Temperature })
	sum.SalMin, sum.SalMax, sum.SalAvg = aggregate(m.records, func(r Record) *float64 { return r.Salinity })
	return sum, nil
}

// aggregate computes min, max and mean over the non-nil values of one
// nullable field, returning nils when no record carries a value.
func aggregate(records []Record, field func(Record) *float64) (lo, hi, mean *float64) {
	var total float64
	var n int
	for _, r := range records {
		v := field(r)
		if v == nil {
			continue
		}
		if n == 0 {
			lo = ptr(*v)
			hi = ptr(*v)
		} else {
			if *v < *lo {
				*lo = *v
			}
			if *v > *hi {
				*hi = *v
			}
		}
		total += *v
		n++
	}
	if n == 0 {
		return nil, nil, nil
	}
	return lo, hi, ptr(total / float64(n))
}

func ptr(v float64) *float64 { return &v }

func (m *MemoryStore) Query(_ context.Context, spec FilterSpec) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []Record{}
	for _, r := range m.records {
		if matches(r, spec) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Time.Equal(matched[j].Time) {
			return matched[i].Time.After(matched[j].Time)
		}
		return matched[i].ID > matched[j].ID
	})
	if spec.Limit >= 0 && len(matched) > spec.Limit {
		matched = matched[:spec.Limit]
	}
	return matched, nil
}

// matches applies every present bound conjunctively. A bound on a nullable
// field rejects records where that field is null, matching the SQL
// comparison semantics of the ClickHouse store.
func matches(r Record, spec FilterSpec) bool {
	if spec.MinDepth != nil && r.Depth < *spec.MinDepth {
		return false
	}
	if spec.MaxDepth != nil && r.Depth > *spec.MaxDepth {
		return false
	}
	if spec.MinTemp != nil && (r.Temperature == nil || *r.Temperature < *spec.MinTemp) {
		return false
	}
	if spec.MaxTemp != nil && (r.Temperature == nil || *r.Temperature > *spec.MaxTemp) {
		return false
	}
	if spec.MinSal != nil && (r.Salinity == nil || *r.Salinity < *spec.MinSal) {
		return false
	}
	if spec.MaxSal != nil && (r.Salinity == nil || *r.Salinity > *spec.MaxSal) {
		return false
	}
	if spec.Platform != nil && r.Platform != *spec.Platform {
		return false
	}
	return true
}

func (m *MemoryStore) Ping(_ context.Context) error { return nil }
