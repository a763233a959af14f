package store

import "time"

// Record is a single ARGO measurement: one sample at one depth, one instant,
// one position. Records are immutable once inserted; there is no update or
// delete path.
type Record struct {
	ID          uint64
	Time        time.Time
	Latitude    float64
	Longitude   float64
	Depth       float64  // pressure proxy, dbar
	Temperature *float64 // deg C, nil when the sensor was absent or failed
	Salinity    *float64 // PSU, nil when the sensor was absent or failed
	Platform    string   // WMO platform id; empty only for malformed ingests
}

// FilterSpec is a conjunctive set of optional inclusive bounds over the
// record table. Absent bounds impose no constraint. A bound on a nullable
// field (temperature, salinity) excludes records where that field is null.
// Unknown keys in a JSON body are ignored by the decoder.
type FilterSpec struct {
	MinDepth *float64 `json:"min_depth"`
	MaxDepth *float64 `json:"max_depth"`
	MinTemp  *float64 `json:"min_temp"`
	MaxTemp  *float64 `json:"max_temp"`
	MinSal   *float64 `json:"min_sal"`
	MaxSal   *float64 `json:"max_sal"`
	Platform *string  `json:"platform"`
	Limit    int      `json:"limit"`
}

// Summary carries the dataset-wide aggregates computed in a single pass over
// the table. Time, depth and position are non-nullable columns, so their
// bounds are meaningful whenever Count > 0. Temperature and salinity
// aggregates are nil when no record carries a non-null value for the field.
type Summary struct {
	Count     int64
	Platforms []string // distinct non-empty platform ids, sorted

	TimeMin time.Time
	TimeMax time.Time

	DepthMin float64
	DepthMax float64

	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64

	TempMin *float64
	TempMax *float64
	TempAvg *float64

	SalMin *float64
	SalMax *float64
	SalAvg *float64
}
