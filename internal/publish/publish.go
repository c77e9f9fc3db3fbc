// Package publish holds the platform adapters. Each adapter posts one
// piece of text to its platform, or simulates the post in dry-run mode
// without touching the network.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Alksalt/llm-social-agent/internal/diary"
)

// Result is the outcome of one publish attempt.
type Result struct {
	Success    bool
	DryRun     bool
	ExternalID string
}

// Publisher posts text to a single platform.
type Publisher interface {
	Platform() diary.Platform
	Publish(ctx context.Context, text string, dryRun bool) (*Result, error)
}

// Error kinds attached to failed publish attempts.
const (
	KindMissingCreds = "missing_credentials"
	KindHTTPError    = "http_error"
	KindTimeout      = "timeout"
	KindMalformed    = "malformed_response"
)

// PublishError classifies a failed adapter call.
type PublishError struct {
	Platform diary.Platform
	Kind     string
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Platform, e.Kind, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

func newPublishError(platform diary.Platform, kind string, err error) *PublishError {
	return &PublishError{Platform: platform, Kind: kind, Err: err}
}

// NewClients builds one adapter per platform. Credentials are read
// from the environment on each publish, so a key added mid-session is
// picked up without restart.
func NewClients(timeout time.Duration) map[diary.Platform]Publisher {
	return map[diary.Platform]Publisher{
		diary.PlatformX:        NewXClient(timeout),
		diary.PlatformThreads:  NewThreadsClient(timeout),
		diary.PlatformLinkedIn: NewLinkedInClient(timeout),
	}
}

// dryRunResult simulates a successful post with a stable synthetic id.
func dryRunResult(platform diary.Platform) *Result {
	return &Result{
		Success:    true,
		DryRun:     true,
		ExternalID: fmt.Sprintf("dryrun-%s-1", platform),
	}
}

// requestErrKind distinguishes deadline expiry from transport failure.
func requestErrKind(ctx context.Context, err error) string {
	var netErr net.Error
	if ctx.Err() != nil || (errors.As(err, &netErr) && netErr.Timeout()) {
		return KindTimeout
	}
	return KindHTTPError
}

// httpError reads a bounded chunk of the failed response for logging.
func httpError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 400))
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
