package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/floatlabs/floatchat/internal/argo"
	"github.com/floatlabs/floatchat/internal/chat/prompts"
	"github.com/floatlabs/floatchat/internal/metrics"
)

// DefaultProviderTimeout bounds a single provider call. There is no retry;
// a failed or timed-out call falls back to templates for that request.
const DefaultProviderTimeout = 120 * time.Second

// Responder produces a reply from a question and its dataset context. The
// strategy is fixed at startup; Respond never fails, degrading to templated
// replies instead.
type Responder interface {
	Respond(ctx context.Context, question string, data *argo.Context) string
}

// RuleBasedResponder answers purely from templates over the snapshot.
type RuleBasedResponder struct{}

func NewRuleBasedResponder() *RuleBasedResponder { return &RuleBasedResponder{} }

func (r *RuleBasedResponder) Respond(_ context.Context, question string, data *argo.Context) string {
	return fallbackReply(question, data)
}

// ProviderResponder delegates to a language model provider, falling back to
// templates on any provider failure or empty reply.
type ProviderResponder struct {
	llm     LLMClient
	timeout time.Duration
	log     *slog.Logger
}

func NewProviderResponder(llm LLMClient, timeout time.Duration, log *slog.Logger) *ProviderResponder {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &ProviderResponder{llm: llm, timeout: timeout, log: log}
}

func (r *ProviderResponder) Respond(ctx context.Context, question string, data *argo.Context) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	reply, err := r.llm.Complete(ctx, prompts.System(), buildUserPrompt(question, data))
	metrics.ProviderLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ProviderCalls.WithLabelValues("error").Inc()
		metrics.ProviderFallbacks.Inc()
		r.log.Warn("provider call failed, serving templated reply", "error", err)
		return fallbackReply(question, data)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		metrics.ProviderCalls.WithLabelValues("empty").Inc()
		metrics.ProviderFallbacks.Inc()
		r.log.Warn("provider returned empty reply, serving templated reply")
		return fallbackReply(question, data)
	}
	metrics.ProviderCalls.WithLabelValues("ok").Inc()
	return reply
}
