// Package explorer contains the learner account domain: profile,
// mentor link, PIN credential, and aggregate XP.
package explorer

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// Explorer is a learner account progressing through modules.
type Explorer struct {
	ID   shared.ExplorerID
	Name string

	// MentorID links an optional supervising mentor. Nil means the
	// explorer is solo (autonomous, self-graded free text).
	MentorID *shared.ExplorerID

	// Solo marks the autonomous trust model explicitly. An explorer
	// without a mentor is always solo; the flag lets a mentored
	// explorer be switched to self-graded mode without unlinking.
	Solo bool

	// PinHash is the bcrypt hash of the profile PIN.
	PinHash string

	// XPTotal is the aggregate XP across all completed defis and badge rewards.
	XPTotal shared.XP

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates an active explorer with a hashed PIN.
func New(id shared.ExplorerID, name, pin string, now time.Time) (*Explorer, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidID
	}
	if shared.IsBlank(name) {
		return nil, shared.NewDomainError("explorer", "New", shared.ErrEmptyValue, "name is required")
	}

	hash, err := HashPin(pin)
	if err != nil {
		return nil, err
	}

	ts := now.UTC()
	return &Explorer{
		ID:        id,
		Name:      name,
		Solo:      true,
		PinHash:   hash,
		Active:    true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// IsSolo reports whether submissions are self-graded: either no mentor
// is linked or the explorer is explicitly autonomous.
func (e *Explorer) IsSolo() bool {
	return e.MentorID == nil || e.Solo
}

// AssignMentor links a supervising mentor and leaves autonomous mode.
func (e *Explorer) AssignMentor(mentorID shared.ExplorerID, now time.Time) error {
	if !mentorID.IsValid() {
		return shared.ErrInvalidID
	}
	if mentorID == e.ID {
		return shared.NewDomainError("explorer", "AssignMentor", shared.ErrInvalidInput, "cannot mentor self")
	}
	e.MentorID = &mentorID
	e.Solo = false
	e.UpdatedAt = now.UTC()
	return nil
}

// RemoveMentor unlinks the mentor; the explorer becomes solo.
func (e *Explorer) RemoveMentor(now time.Time) {
	e.MentorID = nil
	e.Solo = true
	e.UpdatedAt = now.UTC()
}

// IsMentoredBy reports whether the given account is this explorer's mentor.
func (e *Explorer) IsMentoredBy(mentorID shared.ExplorerID) bool {
	return e.MentorID != nil && *e.MentorID == mentorID
}

// AddXP adds earned XP to the aggregate total.
func (e *Explorer) AddXP(delta shared.XP, now time.Time) error {
	if delta < 0 {
		return shared.ErrNegativeValue
	}
	e.XPTotal = e.XPTotal.Add(delta)
	e.UpdatedAt = now.UTC()
	return nil
}

// Deactivate marks the explorer inactive.
func (e *Explorer) Deactivate(now time.Time) {
	e.Active = false
	e.UpdatedAt = now.UTC()
}

// VerifyPin checks a PIN attempt against the stored hash.
func (e *Explorer) VerifyPin(pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(e.PinHash), []byte(pin)) == nil
}

// HashPin hashes a PIN with bcrypt. PINs are short numeric secrets
// typed by children, so the default cost is sufficient.
func HashPin(pin string) (string, error) {
	if len(pin) < 4 {
		return "", shared.ErrInvalidPin
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", shared.WrapError("explorer", "HashPin", shared.ErrInvalidInput, "failed to hash pin", err)
	}
	return string(hash), nil
}
