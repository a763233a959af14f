package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

const (
	defaultDialTimeout      = 10 * time.Second
	defaultMaxExecutionTime = 60
	defaultTableName        = "default.argo_measurements"
)

// ClickHouseOption configures the ClickHouseStore.
type ClickHouseOption func(*ClickHouseStore)

// ClickHouseStore implements Store backed by a single ClickHouse table.
type ClickHouseStore struct {
	addr   string
	db     string
	user   string
	pass   string
	secure bool
	table  string
	conn   clickhouse.Conn
	logger *slog.Logger
}

func WithClickHouseAddr(addr string) ClickHouseOption {
	return func(s *ClickHouseStore) { s.addr = addr }
}

func WithClickHouseDatabase(db string) ClickHouseOption {
	return func(s *ClickHouseStore) { s.db = db }
}

func WithClickHouseUser(user string) ClickHouseOption {
	return func(s *ClickHouseStore) { s.user = user }
}

func WithClickHousePassword(pass string) ClickHouseOption {
	return func(s *ClickHouseStore) { s.pass = pass }
}

func WithClickHouseSecure(secure bool) ClickHouseOption {
	return func(s *ClickHouseStore) { s.secure = secure }
}

func WithClickHouseTable(table string) ClickHouseOption {
	return func(s *ClickHouseStore) { s.table = table }
}

func WithClickHouseLogger(logger *slog.Logger) ClickHouseOption {
	return func(s *ClickHouseStore) { s.logger = logger }
}

// NewClickHouseStore opens a connection to ClickHouse. Call EnsureSchema
// before first use.
func NewClickHouseStore(opts ...ClickHouseOption) (*ClickHouseStore, error) {
	s := &ClickHouseStore{
		addr:  "localhost:9000",
		db:    "default",
		user:  "default",
		table: defaultTableName,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	chOpts := &clickhouse.Options{
		Addr: []string{s.addr},
		Auth: clickhouse.Auth{
			Database: s.db,
			Username: s.user,
			Password: s.pass,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": defaultMaxExecutionTime,
		},
		DialTimeout: defaultDialTimeout,
	}
	if s.secure {
		chOpts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(chOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	s.conn = conn
	return s, nil
}

// EnsureSchema creates the measurement table if it does not exist.
func (s *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id UInt64,
		time DateTime64(3, 'UTC'),
		latitude Float64,
		longitude Float64,
		depth Float64,
		temperature Nullable(Float64),
		salinity Nullable(Float64),
		platform String
	) ENGINE = MergeTree ORDER BY (time, id)`, s.table)

	if err := s.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Insert assigns ids following the current maximum and appends the records
// as one batch. Concurrent ingests are not coordinated here; the ingest
// command is the only writer.
func (s *ClickHouseStore) Insert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	var maxID uint64
	row := s.conn.QueryRow(ctx, fmt.Sprintf("SELECT max(id) FROM %s", s.table))
	if err := row.Scan(&maxID); err != nil {
		return fmt.Errorf("error reading max record id: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf(`INSERT INTO %s (
		id, time, latitude, longitude, depth, temperature, salinity, platform
	)`, s.table))
	if err != nil {
		return fmt.Errorf("error beginning clickhouse batch: %w", err)
	}
	for i, r := range records {
		err = batch.Append(
			maxID+uint64(i)+1,
			r.Time.UTC(),
			r.Latitude,
			r.Longitude,
			r.Depth,
			r.Temperature,
			r.Salinity,
			r.Platform,
		)
		if err != nil {
			_ = batch.Close()
			return fmt.Errorf("error appending to clickhouse batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		_ = batch.Close()
		return fmt.Errorf("error sending clickhouse batch: %w", err)
	}
	if err := batch.Close(); err != nil {
		return fmt.Errorf("error closing clickhouse batch: %w", err)
	}
	s.logger.Info("inserted records", "count", len(records))
	return nil
}

func (s *ClickHouseStore) Count(ctx context.Context) (int64, error) {
	var count uint64
	row := s.conn.QueryRow(ctx, fmt.Sprintf("SELECT count() FROM %s", s.table))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting records: %w", err)
	}
	return int64(count), nil
}

// Summarize runs the full-table aggregate query. ClickHouse aggregates over
// Nullable columns skip nulls and come back NULL when every value is null,
// which is exactly the Summary contract.
func (s *ClickHouseStore) Summarize(ctx context.Context) (*Summary, error) {
	query := fmt.Sprintf(`SELECT
		count() AS total,
		arraySort(arrayFilter(p -> p != '', groupUniqArray(platform))) AS platforms,
		min(time), max(time),
		min(depth), max(depth),
		min(latitude), max(latitude),
		min(longitude), max(longitude),
		min(temperature), max(temperature), avg(temperature),
		min(salinity), max(salinity), avg(salinity)
	FROM %s`, s.table)

	var (
		count     uint64
		platforms []string
		sum       Summary
	)
	row := s.conn.QueryRow(ctx, query)
	err := row.Scan(
		&count,
		&platforms,
		&sum.TimeMin, &sum.TimeMax,
		&sum.DepthMin, &sum.DepthMax,
		&sum.LatMin, &sum.LatMax,
		&sum.LonMin, &sum.LonMax,
		&sum.TempMin, &sum.TempMax, &sum.TempAvg,
		&sum.SalMin, &sum.SalMax, &sum.SalAvg,
	)
	if err != nil {
		return nil, fmt.Errorf("error summarizing records: %w", err)
	}
	sum.Count = int64(count)
	sum.Platforms = platforms
	return &sum, nil
}

func (s *ClickHouseStore) Query(ctx context.Context, spec FilterSpec) ([]Record, error) {
	query, args := buildFilterQuery(s.table, spec)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.Time, &r.Latitude, &r.Longitude,
			&r.Depth, &r.Temperature, &r.Salinity, &r.Platform,
		); err != nil {
			return nil, fmt.Errorf("error scanning record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

func (s *ClickHouseStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// buildFilterQuery turns a FilterSpec into a parameterized SELECT. Every
// present bound becomes an AND'd inclusive predicate; the limit is pushed
// into SQL so the candidate set is never materialized in process.
func buildFilterQuery(table string, spec FilterSpec) (string, []any) {
	var parts []string
	var args []any

	add := func(clause string, value any) {
		parts = append(parts, clause)
		args = append(args, value)
	}

	if spec.MinDepth != nil {
		add("depth >= ?", *spec.MinDepth)
	}
	if spec.MaxDepth != nil {
		add("depth <= ?", *spec.MaxDepth)
	}
	if spec.MinTemp != nil {
		add("temperature >= ?", *spec.MinTemp)
	}
	if spec.MaxTemp != nil {
		add("temperature <= ?", *spec.MaxTemp)
	}
	if spec.MinSal != nil {
		add("salinity >= ?", *spec.MinSal)
	}
	if spec.MaxSal != nil {
		add("salinity <= ?", *spec.MaxSal)
	}
	if spec.Platform != nil {
		add("platform = ?", *spec.Platform)
	}

	where := ""
	if len(parts) > 0 {
		where = " WHERE " + strings.Join(parts, " AND ")
	}

	query := fmt.Sprintf(
		"SELECT id, time, latitude, longitude, depth, temperature, salinity, platform FROM %s%s ORDER BY time DESC, id DESC LIMIT ?",
		table, where,
	)
	args = append(args, spec.Limit)
	return query, args
}
