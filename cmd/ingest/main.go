// Command ingest pulls one ARGO float's profiles from Argovis, flattens
// them into measurement rows, and batch-inserts them into the record store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	flag "github.com/spf13/pflag"

	"github.com/floatlabs/floatchat/internal/argovis"
	"github.com/floatlabs/floatchat/internal/metrics"
	"github.com/floatlabs/floatchat/internal/store"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultFloatID = "2902746"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.ShowVersion {
		fmt.Printf("version: %s, commit: %s, date: %s\n", version, commit, date)
		return nil
	}

	log := newLogger(cfg.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	client := argovis.NewClient(cfg.ArgovisURL)
	log.Info("fetching float profiles", "float", cfg.FloatID, "url", cfg.ArgovisURL)

	profiles, err := backoff.Retry(ctx, func() ([]argovis.Profile, error) {
		return client.PlatformProfiles(ctx, cfg.FloatID)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(5))
	if err != nil {
		return fmt.Errorf("failed to fetch profiles for float %s: %w", cfg.FloatID, err)
	}
	log.Info("fetched profiles", "count", len(profiles))

	records := argovis.Flatten(profiles, cfg.FloatID)
	if len(records) == 0 {
		log.Warn("no measurement rows after flattening, nothing to ingest")
		return nil
	}

	if err := st.Insert(ctx, records); err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}
	metrics.RecordsIngested.Add(float64(len(records)))

	total, err := st.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	log.Info("ingest complete", "inserted", len(records), "total", total)
	return nil
}

func newStore(ctx context.Context, cfg Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Store {
	case "memory":
		// Useful only for dry runs; the data dies with the process.
		return store.NewMemoryStore(), nil
	case "clickhouse":
		ch, err := store.NewClickHouseStore(
			store.WithClickHouseAddr(cfg.ClickHouseAddr),
			store.WithClickHouseDatabase(cfg.ClickHouseDatabase),
			store.WithClickHouseUser(cfg.ClickHouseUser),
			store.WithClickHousePassword(cfg.ClickHousePassword),
			store.WithClickHouseSecure(cfg.ClickHouseSecure),
			store.WithClickHouseTable(cfg.ClickHouseTable),
			store.WithClickHouseLogger(log),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create clickhouse store: %w", err)
		}
		if err := ch.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure clickhouse schema: %w", err)
		}
		return ch, nil
	default:
		return nil, fmt.Errorf("unknown store %q (expected clickhouse or memory)", cfg.Store)
	}
}

type Config struct {
	ShowVersion bool
	Verbose     bool

	FloatID    string
	ArgovisURL string

	Store              string
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseSecure   bool
	ClickHouseTable    string
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
func getenvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func loadConfig() (Config, error) {
	var cfg Config

	flag.BoolVar(&cfg.ShowVersion, "version", false, "show version and exit")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "verbose mode - show debug logs")

	flag.StringVar(&cfg.FloatID, "float-id", getenv("FLOAT_ID", defaultFloatID), "WMO id of the ARGO float to ingest (env: FLOAT_ID)")
	flag.StringVar(&cfg.ArgovisURL, "argovis-url", getenv("ARGOVIS_URL", argovis.DefaultBaseURL), "argovis API base url (env: ARGOVIS_URL)")

	flag.StringVar(&cfg.Store, "store", getenv("STORE", "clickhouse"), "record store backend: clickhouse or memory (env: STORE)")
	flag.StringVar(&cfg.ClickHouseAddr, "clickhouse-addr", getenv("CLICKHOUSE_ADDR", "localhost:9000"), "clickhouse address (env: CLICKHOUSE_ADDR)")
	flag.StringVar(&cfg.ClickHouseDatabase, "clickhouse-database", getenv("CLICKHOUSE_DATABASE", "default"), "clickhouse database (env: CLICKHOUSE_DATABASE)")
	flag.StringVar(&cfg.ClickHouseUser, "clickhouse-user", getenv("CLICKHOUSE_USER", "default"), "clickhouse user (env: CLICKHOUSE_USER)")
	flag.StringVar(&cfg.ClickHousePassword, "clickhouse-password", getenv("CLICKHOUSE_PASSWORD", ""), "clickhouse password (env: CLICKHOUSE_PASSWORD)")
	flag.BoolVar(&cfg.ClickHouseSecure, "clickhouse-secure", getenvBool("CLICKHOUSE_SECURE", false), "use TLS for clickhouse (env: CLICKHOUSE_SECURE)")
	flag.StringVar(&cfg.ClickHouseTable, "clickhouse-table", getenv("CLICKHOUSE_TABLE", "default.argo_measurements"), "clickhouse table (env: CLICKHOUSE_TABLE)")

	flag.Parse()

	if cfg.FloatID == "" {
		return Config{}, fmt.Errorf("float id is empty (set FLOAT_ID or --float-id)")
	}

	return cfg, nil
}

func newLogger(verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				t := a.Value.Time().UTC()
				a.Value = slog.StringValue(formatRFC3339Millis(t))
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func formatRFC3339Millis(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02T15:04:05")
	ms := t.Nanosecond() / 1_000_000
	return fmt.Sprintf("%s.%03dZ", base, ms)
}
