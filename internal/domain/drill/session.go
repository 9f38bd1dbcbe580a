// Package drill contains timed speed-drill sessions and their
// best-record statistics. Sessions are append-only facts: created once
// per finished drill, never mutated.
// This is a pure domain layer with zero external dependencies.
package drill

import (
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// Operation is the arithmetic operation drilled in a session.
type Operation string

const (
	OpAddition       Operation = "addition"
	OpSubtraction    Operation = "subtraction"
	OpMultiplication Operation = "multiplication"
	OpDivision       Operation = "division"
)

// AllOperations lists every operation type. "Master" badge rules
// require thresholds met independently in each of these.
func AllOperations() []Operation {
	return []Operation{OpAddition, OpSubtraction, OpMultiplication, OpDivision}
}

// Difficulty is the drill difficulty tier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// MaxScore is the number of questions per drill; score counts correct answers.
const MaxScore = 10

// Session is one finished timed drill. Append-only.
type Session struct {
	ID         string
	ExplorerID shared.ExplorerID
	Operation  Operation
	Difficulty Difficulty

	// Score is the number of correct answers, 0..MaxScore.
	Score int

	// Accuracy is the percentage of correct answers over attempts, 0..100.
	Accuracy float64

	// TimeSeconds is the total drill duration.
	TimeSeconds float64

	CreatedAt time.Time
}

// NewSession creates a validated drill session.
func NewSession(id string, explorerID shared.ExplorerID, op Operation, diff Difficulty, score int, accuracy, timeSeconds float64, createdAt time.Time) (*Session, error) {
	if id == "" || !explorerID.IsValid() {
		return nil, shared.ErrInvalidID
	}
	if score < 0 || score > MaxScore {
		return nil, shared.ErrInvalidScore
	}
	if accuracy < 0 || accuracy > 100 {
		return nil, shared.ErrInvalidAccuracy
	}
	if timeSeconds <= 0 {
		return nil, shared.ErrInvalidDuration
	}

	return &Session{
		ID:          id,
		ExplorerID:  explorerID,
		Operation:   op,
		Difficulty:  diff,
		Score:       score,
		Accuracy:    accuracy,
		TimeSeconds: timeSeconds,
		CreatedAt:   createdAt.UTC(),
	}, nil
}

// IsPerfect reports a full score.
func (s *Session) IsPerfect() bool {
	return s.Score == MaxScore
}

// BeatenBy reports whether other is a strictly better record than s:
// higher score wins, and among equal scores the lower time wins.
// Score dominates; time is only the tie-break.
func (s *Session) BeatenBy(other *Session) bool {
	if other.Score != s.Score {
		return other.Score > s.Score
	}
	return other.TimeSeconds < s.TimeSeconds
}
