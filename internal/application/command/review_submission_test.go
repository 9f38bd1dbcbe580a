package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// reviewEnv seeds a mentored explorer with a completed choice defi and
// a pending text submission on "halves".
func reviewEnv(t *testing.T) (*env, *ReviewSubmissionHandler) {
	t.Helper()
	e := newEnv(fractionsCatalog())
	e.addExplorer("mentor-1", "")
	e.addExplorer("exp-1", "mentor-1")

	submit := newSubmitHandler(e)
	_, err := submit.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID: "exp-1", ModuleID: "fractions", DefiID: "intro", SelectedOption: intPtr(2),
	})
	require.NoError(t, err)
	_, err = submit.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID: "exp-1", ModuleID: "fractions", DefiID: "halves", ResponseText: "first try",
	})
	require.NoError(t, err)

	h := NewReviewSubmissionHandler(
		e.modules, e.explorerRepo, e.progressRepo, e.badgeFlow, e.bus, e.logger)
	return e, h
}

func TestReviewSubmission_ValidateGrantsXP(t *testing.T) {
	e, h := reviewEnv(t)

	result, err := h.Handle(context.Background(), ReviewSubmissionCommand{
		MentorID:   "mentor-1",
		ExplorerID: "exp-1",
		ModuleID:   "fractions",
		DefiID:     "halves",
		Action:     ActionValidate,
		Comment:    "well reasoned",
	})
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, shared.XP(20), result.XPAwarded)
	assert.Equal(t, progression.EvalValidated, result.Record.Evaluation)
	assert.True(t, result.ModuleCompleted)

	exp, _ := e.explorerRepo.GetByID(context.Background(), "exp-1")
	assert.Equal(t, shared.XP(30+50+25), exp.XPTotal,
		"defi XP plus pathfinder and first-steps badge rewards")
}

func TestReviewSubmission_RevisionRequiresComment(t *testing.T) {
	_, h := reviewEnv(t)

	_, err := h.Handle(context.Background(), ReviewSubmissionCommand{
		MentorID:   "mentor-1",
		ExplorerID: "exp-1",
		ModuleID:   "fractions",
		DefiID:     "halves",
		Action:     ActionRequestRevision,
	})
	assert.ErrorIs(t, err, shared.ErrEmptyMentorComment)
}

func TestReviewSubmission_RevisionThenResubmitCycle(t *testing.T) {
	e, h := reviewEnv(t)

	result, err := h.Handle(context.Background(), ReviewSubmissionCommand{
		MentorID:   "mentor-1",
		ExplorerID: "exp-1",
		ModuleID:   "fractions",
		DefiID:     "halves",
		Action:     ActionRequestRevision,
		Comment:    "explain the denominator",
	})
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, progression.EvalRevisionRequested, result.Record.Evaluation)
	assert.Contains(t, e.bus.typesSeen(), shared.EventRevisionRequested)

	// Resubmission clears the comment and increments the attempt.
	submit := newSubmitHandler(e)
	resub, err := submit.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID: "exp-1", ModuleID: "fractions", DefiID: "halves", ResponseText: "second try",
	})
	require.NoError(t, err)
	assert.True(t, resub.AwaitingReview)
	assert.Equal(t, 2, resub.Record.AttemptCount)
	assert.Nil(t, resub.Record.MentorComment)

	// Validation closes the cycle.
	final, err := h.Handle(context.Background(), ReviewSubmissionCommand{
		MentorID:   "mentor-1",
		ExplorerID: "exp-1",
		ModuleID:   "fractions",
		DefiID:     "halves",
		Action:     ActionValidate,
	})
	require.NoError(t, err)
	assert.True(t, final.Completed)
	assert.Equal(t, 2, final.Record.AttemptCount)
}

func TestReviewSubmission_OnlyAssignedMentor(t *testing.T) {
	e, h := reviewEnv(t)
	e.addExplorer("mentor-2", "")

	_, err := h.Handle(context.Background(), ReviewSubmissionCommand{
		MentorID:   "mentor-2",
		ExplorerID: "exp-1",
		ModuleID:   "fractions",
		DefiID:     "halves",
		Action:     ActionValidate,
	})
	assert.ErrorIs(t, err, shared.ErrNotMentorOf)
}

func TestReviewSubmission_ValidatedRecordIsTerminal(t *testing.T) {
	_, h := reviewEnv(t)

	_, err := h.Handle(context.Background(), ReviewSubmissionCommand{
		MentorID: "mentor-1", ExplorerID: "exp-1", ModuleID: "fractions", DefiID: "halves",
		Action: ActionValidate,
	})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), ReviewSubmissionCommand{
		MentorID: "mentor-1", ExplorerID: "exp-1", ModuleID: "fractions", DefiID: "halves",
		Action: ActionRequestRevision, Comment: "too late",
	})
	assert.ErrorIs(t, err, shared.ErrTerminalState)
}
