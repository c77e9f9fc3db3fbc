package llm

import (
	"context"
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Alksalt/llm-social-agent/internal/diary"
	"github.com/Alksalt/llm-social-agent/internal/errors"
	"github.com/Alksalt/llm-social-agent/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider succeeds or fails per configured behavior and records
// how it was called.
type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Result{
		Text:      f.text,
		Provider:  f.name,
		Model:     req.Model,
		TokensIn:  10,
		TokensOut: 5,
	}, nil
}

// memorySink collects usage rows in order.
type memorySink struct {
	rows []*diary.UsageLogEntry
}

func (s *memorySink) RecordUsage(u *diary.UsageLogEntry) error {
	s.rows = append(s.rows, u)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testTable(routes ...string) *routing.Table {
	return routing.NewTable(map[string][]string{"draft_x": routes}, testLogger())
}

func TestRouterFailoverStopsAtFirstSuccess(t *testing.T) {
	down := &fakeProvider{name: "anthropic", err: newProviderError("anthropic", KindUnavailable, stderrors.New("503"))}
	up := &fakeProvider{name: "openai", text: "A short post."}
	spare := &fakeProvider{name: "gemini", text: "unused"}

	sink := &memorySink{}
	router := NewRouter(
		testTable("anthropic:claude-haiku-4-5", "openai:gpt-5-mini", "gemini:gemini-3-flash-preview"),
		map[string]Provider{"anthropic": down, "openai": up, "gemini": spare},
		sink, nil, time.Second, testLogger(),
	)

	result, err := router.Complete(context.Background(), "draft_x", Request{Prompt: "write"})
	require.NoError(t, err)
	assert.Equal(t, "A short post.", result.Text)
	assert.Equal(t, "openai", result.Provider)
	assert.Equal(t, "gpt-5-mini", result.Model)

	// The third candidate was never contacted.
	assert.Equal(t, 0, spare.calls)

	// One usage row per attempt, failure first.
	require.Len(t, sink.rows, 2)
	assert.False(t, sink.rows[0].Succeeded)
	assert.Equal(t, KindUnavailable, sink.rows[0].ErrorKind)
	assert.Equal(t, "anthropic", sink.rows[0].Provider)
	assert.True(t, sink.rows[1].Succeeded)
	assert.Equal(t, "openai", sink.rows[1].Provider)
}

func TestRouterExhaustion(t *testing.T) {
	a := &fakeProvider{name: "anthropic", err: newProviderError("anthropic", KindTimeout, stderrors.New("deadline"))}
	b := &fakeProvider{name: "openai", err: newProviderError("openai", KindAuth, stderrors.New("bad key"))}

	sink := &memorySink{}
	router := NewRouter(
		testTable("anthropic:claude-haiku-4-5", "openai:gpt-5-mini"),
		map[string]Provider{"anthropic": a, "openai": b},
		sink, nil, time.Second, testLogger(),
	)

	_, err := router.Complete(context.Background(), "draft_x", Request{Prompt: "write"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRouterExhausted))

	var aErr *errors.AgentError
	require.True(t, stderrors.As(err, &aErr))
	assert.Equal(t, []string{"anthropic:claude-haiku-4-5", "openai:gpt-5-mini"}, aErr.Details["attempts"])

	require.Len(t, sink.rows, 2)
	assert.Equal(t, KindTimeout, sink.rows[0].ErrorKind)
	assert.Equal(t, KindAuth, sink.rows[1].ErrorKind)
}

func TestRouterEmptyStage(t *testing.T) {
	router := NewRouter(testTable(), map[string]Provider{}, nil, nil, time.Second, testLogger())

	_, err := router.Complete(context.Background(), "draft_x", Request{Prompt: "write"})
	assert.True(t, errors.Is(err, errors.ErrRouterExhausted))
}

func TestRouterUnknownProviderSkipped(t *testing.T) {
	up := &fakeProvider{name: "openai", text: "post"}
	sink := &memorySink{}
	router := NewRouter(
		testTable("mystery:model-1", "openai:gpt-5-mini"),
		map[string]Provider{"openai": up},
		sink, nil, time.Second, testLogger(),
	)

	result, err := router.Complete(context.Background(), "draft_x", Request{Prompt: "write"})
	require.NoError(t, err)
	assert.Equal(t, "post", result.Text)

	require.Len(t, sink.rows, 2)
	assert.Equal(t, KindUnavailable, sink.rows[0].ErrorKind)
}

func TestRouterCostRecorded(t *testing.T) {
	up := &fakeProvider{name: "openai", text: "post"}
	sink := &memorySink{}
	cost := func(provider, model string, in, out int) float64 {
		return float64(in)*0.001 + float64(out)*0.002
	}
	router := NewRouter(
		testTable("openai:gpt-5-mini"),
		map[string]Provider{"openai": up},
		sink, cost, time.Second, testLogger(),
	)

	_, err := router.Complete(context.Background(), "draft_x", Request{Prompt: "write"})
	require.NoError(t, err)
	require.Len(t, sink.rows, 1)
	assert.InDelta(t, 0.02, sink.rows[0].CostUSD, 1e-9)
}

func TestRouterCancelledContextStopsFailover(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := &fakeProvider{name: "anthropic"}
	second := &fakeProvider{name: "openai", text: "never reached"}

	// Simulate cancellation arriving during the first call.
	first.err = newProviderError("anthropic", KindTimeout, context.Canceled)
	cancel()

	router := NewRouter(
		testTable("anthropic:claude-haiku-4-5", "openai:gpt-5-mini"),
		map[string]Provider{"anthropic": first, "openai": second},
		nil, nil, time.Second, testLogger(),
	)

	_, err := router.Complete(ctx, "draft_x", Request{Prompt: "write"})
	require.Error(t, err)
	assert.Equal(t, 0, second.calls)
}
