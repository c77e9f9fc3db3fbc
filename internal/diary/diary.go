// Package diary holds the domain types for captured entries and the
// platform drafts generated from them.
package diary

// Platform identifies a publishing target.
type Platform string

const (
	PlatformX        Platform = "x"
	PlatformThreads  Platform = "threads"
	PlatformLinkedIn Platform = "linkedin"
)

// Platforms lists all supported platforms in a stable order.
var Platforms = []Platform{PlatformX, PlatformThreads, PlatformLinkedIn}

// Valid reports whether the platform is one of the supported targets.
func (p Platform) Valid() bool {
	switch p {
	case PlatformX, PlatformThreads, PlatformLinkedIn:
		return true
	}
	return false
}

// Status is a draft's position in the pipeline state machine.
type Status string

const (
	StatusPendingSummary    Status = "pending_summary"
	StatusPendingGeneration Status = "pending_generation"
	StatusPendingValidation Status = "pending_validation"
	StatusPendingApproval   Status = "pending_approval"
	StatusApproved          Status = "approved"
	StatusScheduled         Status = "scheduled"
	StatusPublished         Status = "published"
	StatusFailed            Status = "failed"
	StatusDiscarded         Status = "discarded"
)

// Terminal reports whether the status admits no further transitions.
// Failed drafts whose failure came from a publish attempt may still be
// re-published manually; that exception is handled at the op layer.
func (s Status) Terminal() bool {
	switch s {
	case StatusPublished, StatusFailed, StatusDiscarded:
		return true
	}
	return false
}

// Failure reasons recorded on drafts that enter StatusFailed.
const (
	FailValidationExceeded = "validation_exceeded"
	FailRouterExhausted    = "router_exhausted"
	FailPublish            = "publish_failed"
)

// Entry is one unit of raw user text. Entries are immutable after
// ingest and are never deleted.
type Entry struct {
	ID          string
	UserID      string
	RawText     string
	ContentHash string
	Source      string
	Private     bool
	Strict      bool
	CreatedAt   int64
}

// Draft is one platform-targeted candidate post derived from an Entry.
type Draft struct {
	ID            string
	EntryID       string
	Platform      Platform
	Status        Status
	Text          string
	CharCount     int
	Summary       string
	GenProvider   string
	GenModel      string
	SumProvider   string
	SumModel      string
	RegenAttempts int
	FailReason    string
	ScheduledAt   *int64
	PublishedAt   *int64
	ExternalID    string
	CreatedAt     int64
	UpdatedAt     int64
}

// UsageLogEntry is one row per LLM call attempt, append-only.
type UsageLogEntry struct {
	ID        int64
	Stage     string
	Provider  string
	Model     string
	TokensIn  int
	TokensOut int
	CostUSD   float64
	LatencyMS int
	Succeeded bool
	ErrorKind string
	CreatedAt int64
}

// PublishLog is one row per publish attempt, append-only.
type PublishLog struct {
	ID          int64
	DraftID     string
	Platform    Platform
	AttemptedAt int64
	Success     bool
	DryRun      bool
	ExternalID  string
	Error       string
}
