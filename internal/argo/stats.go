package argo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

const noDataMessage = "No data available"

// Snapshot is the dataset statistics computed from one Summarize pass.
// Values are kept unrounded; rounding to two decimals happens only when the
// snapshot is serialized.
type Snapshot struct {
	TotalRecords int64
	Platforms    []string
	TimeMin      time.Time
	TimeMax      time.Time
	DepthMin     float64
	DepthMax     float64
	LatMin       float64
	LatMax       float64
	LonMin       float64
	LonMax       float64
	Temperature  *FieldStat // nil when no record has a temperature
	Salinity     *FieldStat // nil when no record has a salinity
}

// FieldStat aggregates one nullable measurement field over its non-null
// values.
type FieldStat struct {
	Min float64
	Max float64
	Avg float64
}

// DatasetStats recomputes the snapshot from the store. Nothing is cached;
// every caller sees the store as of its own call.
func (s *Service) DatasetStats(ctx context.Context) (*Snapshot, error) {
	sum, err := s.store.Summarize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize dataset: %w", err)
	}

	snap := &Snapshot{
		TotalRecords: sum.Count,
		Platforms:    sum.Platforms,
		TimeMin:      sum.TimeMin,
		TimeMax:      sum.TimeMax,
		DepthMin:     sum.DepthMin,
		DepthMax:     sum.DepthMax,
		LatMin:       sum.LatMin,
		LatMax:       sum.LatMax,
		LonMin:       sum.LonMin,
		LonMax:       sum.LonMax,
	}
	if sum.TempMin != nil {
		snap.Temperature = &FieldStat{Min: *sum.TempMin, Max: *sum.TempMax, Avg: *sum.TempAvg}
	}
	if sum.SalMin != nil {
		snap.Salinity = &FieldStat{Min: *sum.SalMin, Max: *sum.SalMax, Avg: *sum.SalAvg}
	}
	return snap, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type fieldStatJSON struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Avg  float64 `json:"avg"`
	Unit string  `json:"unit"`
}

func fieldJSON(f *FieldStat, unit string) *fieldStatJSON {
	if f == nil {
		return nil
	}
	return &fieldStatJSON{
		Min:  round2(f.Min),
		Max:  round2(f.Max),
		Avg:  round2(f.Avg),
		Unit: unit,
	}
}

// MarshalJSON renders the nested stats document served on the data API. An
// empty dataset collapses to a two-field document so clients never see
// zero-valued ranges that describe no records.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	if s.TotalRecords == 0 {
		return json.Marshal(struct {
			TotalRecords int64  `json:"total_records"`
			Message      string `json:"message"`
		}{0, noDataMessage})
	}

	platforms := s.Platforms
	if platforms == nil {
		platforms = []string{}
	}

	doc := struct {
		TotalRecords int64    `json:"total_records"`
		Floats       []string `json:"floats"`
		FloatCount   int      `json:"float_count"`
		DateRange    struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"date_range"`
		DepthRange struct {
			Min  float64 `json:"min"`
			Max  float64 `json:"max"`
			Unit string  `json:"unit"`
		} `json:"depth_range"`
		Temperature *fieldStatJSON `json:"temperature"`
		Salinity    *fieldStatJSON `json:"salinity"`
		Bounds      struct {
			LatMin float64 `json:"lat_min"`
			LatMax float64 `json:"lat_max"`
			LonMin float64 `json:"lon_min"`
			LonMax float64 `json:"lon_max"`
		} `json:"geographic_bounds"`
	}{
		TotalRecords: s.TotalRecords,
		Floats:       platforms,
		FloatCount:   len(platforms),
		Temperature:  fieldJSON(s.Temperature, "°C"),
		Salinity:     fieldJSON(s.Salinity, "PSU"),
	}
	doc.DateRange.Start = s.TimeMin.UTC().Format(time.RFC3339)
	doc.DateRange.End = s.TimeMax.UTC().Format(time.RFC3339)
	doc.DepthRange.Min = round2(s.DepthMin)
	doc.DepthRange.Max = round2(s.DepthMax)
	doc.DepthRange.Unit = "dbar"
	doc.Bounds.LatMin = round2(s.LatMin)
	doc.Bounds.LatMax = round2(s.LatMax)
	doc.Bounds.LonMin = round2(s.LonMin)
	doc.Bounds.LonMax = round2(s.LonMax)
	return json.Marshal(doc)
}
