package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/floatlabs/floatchat/internal/argo"
	"github.com/floatlabs/floatchat/internal/chat"
	"github.com/floatlabs/floatchat/internal/metrics"
	"github.com/floatlabs/floatchat/internal/server"
	"github.com/floatlabs/floatchat/internal/store"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	defaultListenAddr  = ":8000"
	defaultMetricsAddr = ":8080"

	defaultAnthropicModel = "claude-sonnet-4-0"
	defaultOllamaURL      = "http://localhost:11434"
	defaultOllamaModel    = "llama3.1"
	defaultMaxTokens      = 800
	defaultTemperature    = 0.7
	defaultAITimeoutSecs  = 120
)

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

	// Start prometheus metrics server
	if cfg.MetricsAddr != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		go func() {
			listener, err := net.Listen("tcp", cfg.MetricsAddr)
			if err != nil {
				log.Error("Failed to start prometheus metrics server listener", "error", err)
				os.Exit(1)
			}
			log.Info("Prometheus metrics server listening", "address", listener.Addr().String())
			http.Handle("/metrics", promhttp.Handler())
			if err := http.Serve(listener, nil); err != nil {
				log.Error("Failed to start prometheus metrics server", "error", err)
				os.Exit(1)
			}
		}()
	}

	st, err := newStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	responder, err := newResponder(ctx, &cfg, log)
	if err != nil {
		return err
	}

	app, err := server.New(&server.Config{
		Logger:         log,
		Store:          st,
		Data:           argo.New(st, log),
		Responder:      responder,
		AllowedOrigins: cfg.AllowedOrigins,
		Version:        version,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: app,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("http server listening", "address", cfg.ListenAddr, "store", cfg.Store, "ai_mode", cfg.ResolvedAIMode)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	log.Info("http server stopped")
	return nil
}

func newStore(ctx context.Context, cfg Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Store {
	case "memory":
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
		if err := ch.Ping(ctx); err != nil {
			log.Warn("clickhouse ping failed, continuing anyway", "error", err)
		}
		return ch, nil
	default:
		return nil, fmt.Errorf("unknown store %q (expected clickhouse or memory)", cfg.Store)
	}
}

// newResponder fixes the reply strategy for the lifetime of the process.
// Auto mode prefers Anthropic when a key is present, then a reachable
// Ollama, then templates.
func newResponder(ctx context.Context, cfg *Config, log *slog.Logger) (chat.Responder, error) {
	timeout := time.Duration(cfg.AITimeoutSecs) * time.Second
	hasAnthropicKey := os.Getenv("ANTHROPIC_API_KEY") != ""

	newOllama := func() *chat.OllamaClient {
		return chat.NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel, cfg.MaxTokens, cfg.Temperature)
	}

	mode := cfg.AIMode
	if mode == "auto" {
		switch {
		case hasAnthropicKey:
			mode = "anthropic"
		default:
			probeCtx, probeCancel := context.WithTimeout(ctx, 3*time.Second)
			err := newOllama().Healthy(probeCtx)
			probeCancel()
			if err == nil {
				mode = "ollama"
			} else {
				log.Info("no provider configured, chat runs in rule-based mode")
				mode = "rule"
			}
		}
	}
	cfg.ResolvedAIMode = mode

	switch mode {
	case "anthropic":
		if !hasAnthropicKey {
			return nil, fmt.Errorf("ai mode is anthropic but ANTHROPIC_API_KEY is not set")
		}
		llm := chat.NewAnthropicClient(anthropic.Model(cfg.AnthropicModel), cfg.MaxTokens, cfg.Temperature, log)
		log.Info("chat provider", "mode", "anthropic", "model", cfg.AnthropicModel)
		return chat.NewProviderResponder(llm, timeout, log), nil
	case "ollama":
		llm := newOllama()
		probeCtx, probeCancel := context.WithTimeout(ctx, 3*time.Second)
		err := llm.Healthy(probeCtx)
		probeCancel()
		if err != nil {
			log.Warn("ollama not reachable at startup, requests will fall back until it is", "url", cfg.OllamaURL, "error", err)
		}
		log.Info("chat provider", "mode", "ollama", "model", cfg.OllamaModel, "url", cfg.OllamaURL)
		return chat.NewProviderResponder(llm, timeout, log), nil
	case "rule":
		return chat.NewRuleBasedResponder(), nil
	default:
		return nil, fmt.Errorf("unknown ai mode %q (expected anthropic, ollama, rule or auto)", mode)
	}
}

type Config struct {
	ShowVersion bool
	Verbose     bool
	MetricsAddr string

	ListenAddr     string
	AllowedOrigins []string

	Store              string
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseSecure   bool
	ClickHouseTable    string

	AIMode         string
	ResolvedAIMode string
	AnthropicModel string
	OllamaURL      string
	OllamaModel    string
	MaxTokens      int64
	Temperature    float64
	AITimeoutSecs  int
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
func getenvInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return i, nil
}
func getenvFloat(key string, def float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return f, nil
}
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadConfig() (Config, error) {
	var cfg Config
	var originsCSV string
	var maxTokens int

	flag.BoolVar(&cfg.ShowVersion, "version", false, "show version and exit")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "verbose mode - show debug logs")

	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", getenv("METRICS_ADDR", defaultMetricsAddr), "address to listen on for prometheus metrics (env: METRICS_ADDR)")
	flag.StringVar(&cfg.ListenAddr, "listen-addr", getenv("LISTEN_ADDR", defaultListenAddr), "address to listen on for the API (env: LISTEN_ADDR)")
	flag.StringVar(&originsCSV, "allowed-origins", getenv("ALLOWED_ORIGINS", "*"), "allowed CORS origins csv (env: ALLOWED_ORIGINS)")

	flag.StringVar(&cfg.Store, "store", getenv("STORE", "clickhouse"), "record store backend: clickhouse or memory (env: STORE)")
	flag.StringVar(&cfg.ClickHouseAddr, "clickhouse-addr", getenv("CLICKHOUSE_ADDR", "localhost:9000"), "clickhouse address (env: CLICKHOUSE_ADDR)")
	flag.StringVar(&cfg.ClickHouseDatabase, "clickhouse-database", getenv("CLICKHOUSE_DATABASE", "default"), "clickhouse database (env: CLICKHOUSE_DATABASE)")
	flag.StringVar(&cfg.ClickHouseUser, "clickhouse-user", getenv("CLICKHOUSE_USER", "default"), "clickhouse user (env: CLICKHOUSE_USER)")
	flag.StringVar(&cfg.ClickHousePassword, "clickhouse-password", getenv("CLICKHOUSE_PASSWORD", ""), "clickhouse password (env: CLICKHOUSE_PASSWORD)")
	flag.BoolVar(&cfg.ClickHouseSecure, "clickhouse-secure", getenvBool("CLICKHOUSE_SECURE", false), "use TLS for clickhouse (env: CLICKHOUSE_SECURE)")
	flag.StringVar(&cfg.ClickHouseTable, "clickhouse-table", getenv("CLICKHOUSE_TABLE", "default.argo_measurements"), "clickhouse table (env: CLICKHOUSE_TABLE)")

	flag.StringVar(&cfg.AIMode, "ai-mode", getenv("AI_MODE", "auto"), "chat provider: anthropic, ollama, rule or auto (env: AI_MODE)")
	flag.StringVar(&cfg.AnthropicModel, "anthropic-model", getenv("ANTHROPIC_MODEL", defaultAnthropicModel), "anthropic model (env: ANTHROPIC_MODEL)")
	flag.StringVar(&cfg.OllamaURL, "ollama-url", getenv("OLLAMA_URL", defaultOllamaURL), "ollama base url (env: OLLAMA_URL)")
	flag.StringVar(&cfg.OllamaModel, "ollama-model", getenv("OLLAMA_MODEL", defaultOllamaModel), "ollama model (env: OLLAMA_MODEL)")

	flag.Parse()

	if cfg.ShowVersion {
		return cfg, nil
	}

	cfg.AllowedOrigins = splitCSV(originsCSV)

	var err error
	maxTokens, err = getenvInt("AI_MAX_TOKENS", defaultMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxTokens = int64(maxTokens)
	cfg.Temperature, err = getenvFloat("AI_TEMPERATURE", defaultTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.AITimeoutSecs, err = getenvInt("AI_TIMEOUT_SECONDS", defaultAITimeoutSecs)
	if err != nil {
		return Config{}, err
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
