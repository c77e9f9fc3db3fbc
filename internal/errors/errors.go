package errors

import "fmt"

// ErrorCode classifies agent errors for callers and surfaces.
type ErrorCode string

const (
	ErrDuplicateEntry     ErrorCode = "DUPLICATE_ENTRY"     // 409
	ErrRouterExhausted    ErrorCode = "ROUTER_EXHAUSTED"    // 502
	ErrValidationExceeded ErrorCode = "VALIDATION_EXCEEDED" // 422
	ErrPublishFailed      ErrorCode = "PUBLISH_FAILED"      // 502
	ErrRateLimited        ErrorCode = "RATE_LIMITED"        // 429
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrInvalidStatus      ErrorCode = "INVALID_STATUS"      // 409
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// AgentError represents a structured error with code, status, and details.
type AgentError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AgentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewDuplicateEntry creates a 409 error for an entry the user already captured.
// Terminal and user-visible; never retried.
func NewDuplicateEntry(userID string) *AgentError {
	return &AgentError{
		Code:    ErrDuplicateEntry,
		Status:  409,
		Message: "already captured: an identical entry exists for this user",
		Details: map[string]any{"user_id": userID},
	}
}

// NewRouterExhausted creates a 502 error after every routing candidate failed.
// Carries the per-candidate failures so callers can report them.
func NewRouterExhausted(stage string, attempts []string) *AgentError {
	return &AgentError{
		Code:    ErrRouterExhausted,
		Status:  502,
		Message: fmt.Sprintf("all provider routes failed for stage %q", stage),
		Details: map[string]any{"stage": stage, "attempts": attempts},
	}
}

// NewValidationExceeded creates a 422 error when a draft is still over the
// platform limit after the bounded regeneration attempts.
func NewValidationExceeded(platform string, length, limit, attempts int) *AgentError {
	return &AgentError{
		Code:    ErrValidationExceeded,
		Status:  422,
		Message: fmt.Sprintf("%s draft is %d chars (limit %d) after %d regeneration attempts", platform, length, limit, attempts),
		Details: map[string]any{"platform": platform, "length": length, "limit": limit, "attempts": attempts},
	}
}

// NewPublishFailed creates a 502 error carrying the adapter-reported reason.
// Terminal for this attempt; manual re-invocation is the only retry path.
func NewPublishFailed(platform, reason string) *AgentError {
	return &AgentError{
		Code:    ErrPublishFailed,
		Status:  502,
		Message: fmt.Sprintf("publish to %s failed: %s", platform, reason),
		Details: map[string]any{"platform": platform, "reason": reason},
	}
}

// NewRateLimited creates a 429 error when the weekly platform cap is reached.
func NewRateLimited(platform string, cap int) *AgentError {
	return &AgentError{
		Code:    ErrRateLimited,
		Status:  429,
		Message: fmt.Sprintf("weekly publish cap reached for %s (%d per rolling 7 days)", platform, cap),
		Details: map[string]any{"platform": platform, "cap": cap},
	}
}

// NewNotFound creates a 404 error for a missing entry or draft.
func NewNotFound(kind, id string) *AgentError {
	return &AgentError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewInvalidRequest creates a 400 error for invalid parameters.
func NewInvalidRequest(msg string) *AgentError {
	return &AgentError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidStatus creates a 409 error for a transition the state machine forbids.
func NewInvalidStatus(draftID, status, wanted string) *AgentError {
	return &AgentError{
		Code:    ErrInvalidStatus,
		Status:  409,
		Message: fmt.Sprintf("draft %s is %s, expected %s", draftID, status, wanted),
		Details: map[string]any{"draft_id": draftID, "status": status, "expected": wanted},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AgentError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AgentError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an AgentError with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*AgentError); ok {
		return aErr.Code == code
	}
	return false
}
