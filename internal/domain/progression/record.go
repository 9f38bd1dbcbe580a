// Package progression contains the submission lifecycle of progress
// records: one durable row per (explorer, module, defi), moved through
// an explicit state machine from first answer to final grading.
// This is a pure domain layer with zero external dependencies.
package progression

import (
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// CompletionStatus is the coarse status of a progress record.
type CompletionStatus string

const (
	// StatusUnlocked - record exists but the defi is not yet done.
	StatusUnlocked CompletionStatus = "unlocked"

	// StatusSubmitted - a free-text answer is awaiting (or has been
	// returned from) mentor review.
	StatusSubmitted CompletionStatus = "submitted"

	// StatusCompleted - the defi is done; XP has been granted.
	StatusCompleted CompletionStatus = "completed"
)

// EvaluationStatus is the submission-lifecycle state of a record.
type EvaluationStatus string

const (
	// EvalSubmitted - awaiting mentor review.
	EvalSubmitted EvaluationStatus = "SUBMITTED"

	// EvalRevisionRequested - returned by the mentor with a comment.
	EvalRevisionRequested EvaluationStatus = "REVISION_REQUESTED"

	// EvalValidated - accepted by the mentor. Terminal.
	EvalValidated EvaluationStatus = "VALIDATED"

	// EvalImmediate - auto-graded completion (correct choice, or solo
	// free text). Terminal.
	EvalImmediate EvaluationStatus = "IMMEDIATE_COMPLETION"
)

// IsTerminal reports whether the evaluation status accepts no further
// submissions.
func (s EvaluationStatus) IsTerminal() bool {
	return s == EvalValidated || s == EvalImmediate
}

// Record is one explorer's durable progress on one defi.
// Unique key: (ExplorerID, ModuleID, DefiID) - upserted, never duplicated.
//
// Invariant: XPEarned > 0 only when Evaluation is VALIDATED or
// IMMEDIATE_COMPLETION.
type Record struct {
	ID         string
	ExplorerID shared.ExplorerID
	ModuleID   shared.ModuleID
	DefiID     shared.DefiID

	Status     CompletionStatus
	Evaluation EvaluationStatus
	XPEarned   shared.XP

	// ResponseText holds the latest free-text answer (empty for choice defis).
	ResponseText string

	// MentorComment is the latest mentor feedback. Cleared on resubmission.
	MentorComment *string

	// AttemptCount starts at 1 and increments on every save to the same
	// key. The storage layer performs the increment atomically; this
	// field reflects the in-memory view.
	AttemptCount int

	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSITIONS
// One function per transition so legality can be tested independently
// of persistence.
// ══════════════════════════════════════════════════════════════════════════════

// NewChoiceCompletion creates the record for a correctly answered
// multiple-choice defi. Grading happens before this constructor: an
// incorrect choice never creates or mutates a record, the explorer
// simply retries locally. A correct answer lands directly and
// atomically in IMMEDIATE_COMPLETION with full XP, regardless of
// explorer mode.
func NewChoiceCompletion(id string, explorerID shared.ExplorerID, moduleID shared.ModuleID, defiID shared.DefiID, xp shared.XP, now time.Time) *Record {
	completedAt := now.UTC()
	return &Record{
		ID:           id,
		ExplorerID:   explorerID,
		ModuleID:     moduleID,
		DefiID:       defiID,
		Status:       StatusCompleted,
		Evaluation:   EvalImmediate,
		XPEarned:     xp,
		AttemptCount: 1,
		CompletedAt:  &completedAt,
		CreatedAt:    completedAt,
		UpdatedAt:    completedAt,
	}
}

// NewTextSubmission creates the record for a first free-text answer.
//
// Solo explorers (no mentor) are self-graded: the record lands directly
// in IMMEDIATE_COMPLETION with full XP. Mentored explorers enter
// SUBMITTED with zero XP pending review.
//
// A blank response is rejected before any state exists.
func NewTextSubmission(id string, explorerID shared.ExplorerID, moduleID shared.ModuleID, defiID shared.DefiID, text string, solo bool, xp shared.XP, now time.Time) (*Record, error) {
	if shared.IsBlank(text) {
		return nil, shared.ErrEmptyResponse
	}

	ts := now.UTC()
	r := &Record{
		ID:           id,
		ExplorerID:   explorerID,
		ModuleID:     moduleID,
		DefiID:       defiID,
		ResponseText: text,
		AttemptCount: 1,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	if solo {
		r.Status = StatusCompleted
		r.Evaluation = EvalImmediate
		r.XPEarned = xp
		r.CompletedAt = &ts
	} else {
		r.Status = StatusSubmitted
		r.Evaluation = EvalSubmitted
		r.XPEarned = 0
	}

	return r, nil
}

// Resubmit replaces the answer after a revision request: attempt count
// increments, the mentor comment is cleared, and the record returns to
// SUBMITTED. Terminal records reject resubmission unchanged.
func (r *Record) Resubmit(text string, now time.Time) error {
	if shared.IsBlank(text) {
		return shared.ErrEmptyResponse
	}
	if r.Evaluation.IsTerminal() {
		return shared.ErrRecordTerminal
	}
	if r.Evaluation != EvalRevisionRequested {
		return shared.ErrNotAwaitingResubmit
	}

	r.ResponseText = text
	r.MentorComment = nil
	r.AttemptCount++
	r.Status = StatusSubmitted
	r.Evaluation = EvalSubmitted
	r.UpdatedAt = now.UTC()
	return nil
}

// Validate is the mentor acceptance transition: the record becomes
// VALIDATED (terminal), the XP is granted and the comment recorded.
// Only records awaiting review (SUBMITTED or REVISION_REQUESTED) can
// be validated.
func (r *Record) Validate(comment string, xp shared.XP, now time.Time) error {
	if !r.awaitingReview() {
		return shared.ErrNotAwaitingReview
	}

	ts := now.UTC()
	r.Status = StatusCompleted
	r.Evaluation = EvalValidated
	r.XPEarned = xp
	if !shared.IsBlank(comment) {
		r.MentorComment = &comment
	}
	r.CompletedAt = &ts
	r.UpdatedAt = ts
	return nil
}

// RequestRevision is the mentor rejection transition: the comment is
// mandatory, XP stays at zero, and the explorer may resubmit.
func (r *Record) RequestRevision(comment string, now time.Time) error {
	if shared.IsBlank(comment) {
		return shared.ErrEmptyMentorComment
	}
	if !r.awaitingReview() {
		return shared.ErrNotAwaitingReview
	}

	r.Status = StatusSubmitted
	r.Evaluation = EvalRevisionRequested
	r.MentorComment = &comment
	r.UpdatedAt = now.UTC()
	return nil
}

// awaitingReview reports whether mentor actions are legal.
func (r *Record) awaitingReview() bool {
	return r.Evaluation == EvalSubmitted || r.Evaluation == EvalRevisionRequested
}

// IsCompleted reports whether the record reached a terminal completed state.
func (r *Record) IsCompleted() bool {
	return r.Evaluation.IsTerminal()
}

// CheckInvariants verifies the XP/status invariant. Used by tests and
// by the persistence layer as a write guard.
func (r *Record) CheckInvariants() error {
	if r.XPEarned > 0 && !r.Evaluation.IsTerminal() {
		return shared.NewDomainError("progression", "CheckInvariants", shared.ErrInvalidState,
			"xp granted outside a terminal evaluation status")
	}
	if r.AttemptCount < 1 {
		return shared.NewDomainError("progression", "CheckInvariants", shared.ErrValueOutOfRange,
			"attempt count must be at least 1")
	}
	return nil
}

// CompletedDefi is the compact completion fact used by the dependency
// resolver and the badge engine: which defi, when, and for how much XP.
type CompletedDefi struct {
	ModuleID    shared.ModuleID
	DefiID      shared.DefiID
	XPEarned    shared.XP
	CompletedAt time.Time
}
