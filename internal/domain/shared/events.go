// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven recomputation:
// every completed activity publishes an event, and badge evaluation
// is triggered by the corresponding handler.
const (
	// Explorer events
	EventExplorerRegistered  EventType = "explorer.registered"
	EventExplorerDeactivated EventType = "explorer.deactivated"

	// Progression events
	EventDefiSubmitted       EventType = "progression.defi_submitted"
	EventDefiCompleted       EventType = "progression.defi_completed"
	EventRevisionRequested   EventType = "progression.revision_requested"
	EventSubmissionValidated EventType = "progression.submission_validated"
	EventModuleCompleted     EventType = "progression.module_completed"
	EventXPGained            EventType = "progression.xp_gained"

	// Streak events
	EventStreakExtended EventType = "streak.extended"
	EventStreakReset    EventType = "streak.reset"

	// Drill events
	EventDrillFinished EventType = "drill.finished"

	// Badge events
	EventBadgeEarned    EventType = "badge.earned"
	EventBadgeCelebrate EventType = "badge.celebrated"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a domain event.
type EventHandler func(ctx context.Context, event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// DefiCompletedEvent is emitted when a defi reaches a terminal completed
// state (VALIDATED or IMMEDIATE_COMPLETION).
type DefiCompletedEvent struct {
	BaseEvent
	ExplorerID string `json:"explorer_id"`
	ModuleID   string `json:"module_id"`
	DefiID     string `json:"defi_id"`
	XPEarned   int    `json:"xp_earned"`
}

// NewDefiCompletedEvent creates a DefiCompletedEvent.
func NewDefiCompletedEvent(explorerID ExplorerID, moduleID ModuleID, defiID DefiID, xp XP) DefiCompletedEvent {
	return DefiCompletedEvent{
		BaseEvent:  NewBaseEvent(EventDefiCompleted, explorerID.String()),
		ExplorerID: explorerID.String(),
		ModuleID:   moduleID.String(),
		DefiID:     defiID.String(),
		XPEarned:   xp.Int(),
	}
}

// Payload implements Event interface.
func (e DefiCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"explorer_id": e.ExplorerID,
		"module_id":   e.ModuleID,
		"defi_id":     e.DefiID,
		"xp_earned":   e.XPEarned,
	}
}

// DefiSubmittedEvent is emitted when a free-text answer enters review.
type DefiSubmittedEvent struct {
	BaseEvent
	ExplorerID string `json:"explorer_id"`
	ModuleID   string `json:"module_id"`
	DefiID     string `json:"defi_id"`
	Attempt    int    `json:"attempt"`
}

// NewDefiSubmittedEvent creates a DefiSubmittedEvent.
func NewDefiSubmittedEvent(explorerID ExplorerID, moduleID ModuleID, defiID DefiID, attempt int) DefiSubmittedEvent {
	return DefiSubmittedEvent{
		BaseEvent:  NewBaseEvent(EventDefiSubmitted, explorerID.String()),
		ExplorerID: explorerID.String(),
		ModuleID:   moduleID.String(),
		DefiID:     defiID.String(),
		Attempt:    attempt,
	}
}

// Payload implements Event interface.
func (e DefiSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"explorer_id": e.ExplorerID,
		"module_id":   e.ModuleID,
		"defi_id":     e.DefiID,
		"attempt":     e.Attempt,
	}
}

// ModuleCompletedEvent is emitted when every defi of a module is completed.
type ModuleCompletedEvent struct {
	BaseEvent
	ExplorerID string `json:"explorer_id"`
	ModuleID   string `json:"module_id"`
	TotalXP    int    `json:"total_xp"`
}

// NewModuleCompletedEvent creates a ModuleCompletedEvent.
func NewModuleCompletedEvent(explorerID ExplorerID, moduleID ModuleID, totalXP XP) ModuleCompletedEvent {
	return ModuleCompletedEvent{
		BaseEvent:  NewBaseEvent(EventModuleCompleted, explorerID.String()),
		ExplorerID: explorerID.String(),
		ModuleID:   moduleID.String(),
		TotalXP:    totalXP.Int(),
	}
}

// Payload implements Event interface.
func (e ModuleCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"explorer_id": e.ExplorerID,
		"module_id":   e.ModuleID,
		"total_xp":    e.TotalXP,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Drill Events
// ═══════════════════════════════════════════════════════════════════════════

// DrillFinishedEvent is emitted when a timed speed drill session is recorded.
type DrillFinishedEvent struct {
	BaseEvent
	ExplorerID string `json:"explorer_id"`
	Operation  string `json:"operation"`
	Difficulty string `json:"difficulty"`
	Score      int    `json:"score"`
}

// NewDrillFinishedEvent creates a DrillFinishedEvent.
func NewDrillFinishedEvent(explorerID ExplorerID, operation, difficulty string, score int) DrillFinishedEvent {
	return DrillFinishedEvent{
		BaseEvent:  NewBaseEvent(EventDrillFinished, explorerID.String()),
		ExplorerID: explorerID.String(),
		Operation:  operation,
		Difficulty: difficulty,
		Score:      score,
	}
}

// Payload implements Event interface.
func (e DrillFinishedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"explorer_id": e.ExplorerID,
		"operation":   e.Operation,
		"difficulty":  e.Difficulty,
		"score":       e.Score,
	}
}

// RevisionRequestedEvent is emitted when a mentor sends a submission
// back for revision.
type RevisionRequestedEvent struct {
	BaseEvent
	ExplorerID string `json:"explorer_id"`
	ModuleID   string `json:"module_id"`
	DefiID     string `json:"defi_id"`
	Attempt    int    `json:"attempt"`
}

// NewRevisionRequestedEvent creates a RevisionRequestedEvent.
func NewRevisionRequestedEvent(explorerID ExplorerID, moduleID ModuleID, defiID DefiID, attempt int) RevisionRequestedEvent {
	return RevisionRequestedEvent{
		BaseEvent:  NewBaseEvent(EventRevisionRequested, explorerID.String()),
		ExplorerID: explorerID.String(),
		ModuleID:   moduleID.String(),
		DefiID:     defiID.String(),
		Attempt:    attempt,
	}
}

// Payload implements Event interface.
func (e RevisionRequestedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"explorer_id": e.ExplorerID,
		"module_id":   e.ModuleID,
		"defi_id":     e.DefiID,
		"attempt":     e.Attempt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeEarnedEvent is emitted when a badge crosses the earned threshold
// for the first time.
type BadgeEarnedEvent struct {
	BaseEvent
	ExplorerID string `json:"explorer_id"`
	BadgeID    string `json:"badge_id"`
	XPReward   int    `json:"xp_reward"`
}

// NewBadgeEarnedEvent creates a BadgeEarnedEvent.
func NewBadgeEarnedEvent(explorerID ExplorerID, badgeID BadgeID, xpReward int) BadgeEarnedEvent {
	return BadgeEarnedEvent{
		BaseEvent:  NewBaseEvent(EventBadgeEarned, explorerID.String()),
		ExplorerID: explorerID.String(),
		BadgeID:    badgeID.String(),
		XPReward:   xpReward,
	}
}

// Payload implements Event interface.
func (e BadgeEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"explorer_id": e.ExplorerID,
		"badge_id":    e.BadgeID,
		"xp_reward":   e.XPReward,
	}
}
