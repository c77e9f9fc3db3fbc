package llm

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
	"github.com/Alksalt/llm-social-agent/internal/routing"
)

// UsageSink records one row per provider attempt, success or failure.
type UsageSink interface {
	RecordUsage(u *diary.UsageLogEntry) error
}

// CostFunc estimates the USD cost of a call from its token counts.
type CostFunc func(provider, model string, tokensIn, tokensOut int) float64

// Router walks a stage's candidate list in order and returns the first
// success. Every attempt is logged to the sink before the next
// candidate is tried.
type Router struct {
	table       *routing.Table
	providers   map[string]Provider
	sink        UsageSink
	cost        CostFunc
	callTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewRouter wires a routing table to concrete provider clients.
func NewRouter(table *routing.Table, providers map[string]Provider, sink UsageSink, cost CostFunc, callTimeout time.Duration, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cost == nil {
		cost = func(string, string, int, int) float64 { return 0 }
	}
	return &Router{
		table:       table,
		providers:   providers,
		sink:        sink,
		cost:        cost,
		callTimeout: callTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Complete runs the stage's candidates in routing order. On success the
// remaining candidates are never contacted. When every candidate fails
// the returned error is ROUTER_EXHAUSTED listing what was tried.
func (r *Router) Complete(ctx context.Context, stage string, req Request) (*Result, error) {
	candidates := r.table.Candidates(stage)
	if len(candidates) == 0 {
		return nil, errors.NewRouterExhausted(stage, nil)
	}

	req.Stage = stage
	attempted := make([]string, 0, len(candidates))

	for _, route := range candidates {
		attempted = append(attempted, route.String())

		provider, ok := r.providers[route.Provider]
		if !ok {
			r.logUsage(stage, route, nil, KindUnavailable)
			r.logger.Warn("no client for provider", "stage", stage, "provider", route.Provider)
			continue
		}

		req.Model = route.Model
		result, err := r.generateOnce(ctx, provider, req)
		if err != nil {
			kind := KindUnavailable
			var pErr *ProviderError
			if stderrors.As(err, &pErr) {
				kind = pErr.Kind
			}
			r.logUsage(stage, route, nil, kind)
			r.logger.Warn("provider attempt failed",
				"stage", stage, "route", route.String(), "kind", kind, "error", err)

			if ctx.Err() != nil {
				// The caller's context is gone; further candidates
				// would fail the same way.
				break
			}
			continue
		}

		r.logUsage(stage, route, result, "")
		r.logger.Debug("provider attempt succeeded",
			"stage", stage, "route", route.String(), "latency_ms", result.LatencyMS)
		return result, nil
	}

	return nil, errors.NewRouterExhausted(stage, attempted)
}

// generateOnce bounds a single provider call with the per-call timeout.
func (r *Router) generateOnce(ctx context.Context, provider Provider, req Request) (*Result, error) {
	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}
	return provider.Generate(ctx, req)
}

func (r *Router) logUsage(stage string, route routing.Route, result *Result, errorKind string) {
	if r.sink == nil {
		return
	}
	u := &diary.UsageLogEntry{
		Stage:     stage,
		Provider:  route.Provider,
		Model:     route.Model,
		Succeeded: result != nil,
		ErrorKind: errorKind,
		CreatedAt: r.now().Unix(),
	}
	if result != nil {
		u.TokensIn = result.TokensIn
		u.TokensOut = result.TokensOut
		u.LatencyMS = result.LatencyMS
		u.CostUSD = r.cost(route.Provider, route.Model, result.TokensIn, result.TokensOut)
	}
	if err := r.sink.RecordUsage(u); err != nil {
		r.logger.Warn("failed to record usage", "stage", stage, "error", err)
	}
}
