// Package llm holds the provider clients and the failover router that
// turns diary text into platform drafts.
package llm

import (
	"context"
	"fmt"
	"net/http"
)

// Request is one generation call against a single provider.
type Request struct {
	Stage       string
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Result is a successful generation.
type Result struct {
	Text      string
	Provider  string
	Model     string
	TokensIn  int
	TokensOut int
	LatencyMS int
}

// Provider is a single LLM backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Error kinds recorded in the usage log when a provider call fails.
const (
	KindUnavailable = "provider_unavailable"
	KindTimeout     = "timeout"
	KindAuth        = "auth"
	KindRateLimited = "rate_limited"
	KindHTTPError   = "http_error"
	KindMalformed   = "malformed_response"
	KindEmpty       = "empty_response"
)

// ProviderError wraps a failed provider call with its classification.
type ProviderError struct {
	Provider string
	Kind     string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(provider, kind string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// classifyStatus maps an HTTP status to an error kind.
func classifyStatus(code int) string {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= 500:
		return KindUnavailable
	default:
		return KindHTTPError
	}
}
