package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeContest(round int) Contest {
	return Contest{ID: 1, OwnerID: 10, Status: ContestActive, Round: round, WinnersNeeded: 1}
}

// ------------------- advance round -------------------

func TestCanAdvanceRound_HappyPath(t *testing.T) {
	assert.NoError(t, canAdvanceRound(activeContest(1), 2))
	assert.NoError(t, canAdvanceRound(activeContest(2), 1))
}

func TestCanAdvanceRound_RequiresActiveContest(t *testing.T) {
	for _, status := range []string{ContestDraft, ContestCompleted, ContestCancelled} {
		ct := activeContest(1)
		ct.Status = status
		err := canAdvanceRound(ct, 5)
		require.Error(t, err, "status %s", status)
		assert.Contains(t, err.Error(), status)
	}
}

func TestCanAdvanceRound_BoundedToFinalRound(t *testing.T) {
	err := canAdvanceRound(activeContest(3), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "final round")
}

func TestCanAdvanceRound_NeedsAcceptedSubmission(t *testing.T) {
	err := canAdvanceRound(activeContest(1), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no accepted submissions")
}

// ------------------- cancel -------------------

func TestCanCancel_TerminalStatesAreFinal(t *testing.T) {
	for _, status := range []string{ContestCompleted, ContestCancelled} {
		ct := activeContest(1)
		ct.Status = status
		err := canCancel(ct, false)
		require.Error(t, err, "status %s", status)
		assert.Contains(t, err.Error(), "already")
	}
}

func TestCanCancel_BlockedAfterRoundOneAcceptance(t *testing.T) {
	err := canCancel(activeContest(1), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "round 2")
}

func TestCanCancel_AllowedBeforeAnyAcceptance(t *testing.T) {
	assert.NoError(t, canCancel(activeContest(1), false))

	draft := activeContest(1)
	draft.Status = ContestDraft
	assert.NoError(t, canCancel(draft, false))
}

// ------------------- winner selection -------------------

func winnerCandidate() Submission {
	return Submission{ID: 7, ContestID: 1, DesignerID: 20, Round: 3, Status: SubAccepted}
}

func TestCanSelectWinner_HappyPath(t *testing.T) {
	assert.NoError(t, canSelectWinner(activeContest(3), winnerCandidate()))
}

func TestCanSelectWinner_OnlyInFinalRound(t *testing.T) {
	for _, round := range []int{1, 2} {
		err := canSelectWinner(activeContest(round), winnerCandidate())
		require.Error(t, err, "round %d", round)
	}
}

func TestCanSelectWinner_RequiresActiveContest(t *testing.T) {
	ct := activeContest(3)
	ct.Status = ContestCompleted
	assert.Error(t, canSelectWinner(ct, winnerCandidate()))
}

func TestCanSelectWinner_SubmissionMustMatch(t *testing.T) {
	foreign := winnerCandidate()
	foreign.ContestID = 99
	assert.Error(t, canSelectWinner(activeContest(3), foreign))

	earlyRound := winnerCandidate()
	earlyRound.Round = 2
	assert.Error(t, canSelectWinner(activeContest(3), earlyRound))

	for _, status := range []string{SubPending, SubPassed, SubWinner, SubModification} {
		sub := winnerCandidate()
		sub.Status = status
		assert.Error(t, canSelectWinner(activeContest(3), sub), "status %s", status)
	}
}

func TestWinnerQuotaMet_EqualityBoundary(t *testing.T) {
	ct := activeContest(3)
	ct.WinnersNeeded = 2

	// below quota the contest stays active
	assert.False(t, winnerQuotaMet(ct, 0))
	assert.False(t, winnerQuotaMet(ct, 1))

	// meeting the quota exactly completes it
	assert.True(t, winnerQuotaMet(ct, 2))
	assert.True(t, winnerQuotaMet(ct, 3))
}

func TestWinnerQuotaMet_SingleWinner(t *testing.T) {
	ct := activeContest(3)
	ct.WinnersNeeded = 1
	assert.False(t, winnerQuotaMet(ct, 0))
	assert.True(t, winnerQuotaMet(ct, 1))
}

// ------------------- accept / pass -------------------

func TestCanAccept(t *testing.T) {
	sub := Submission{ContestID: 1, Round: 1, Status: SubPending}
	assert.NoError(t, canAccept(activeContest(1), sub))

	// modification rows are reviewed the same way as pending ones
	sub.Status = SubModification
	assert.NoError(t, canAccept(activeContest(1), sub))

	for _, status := range []string{SubAccepted, SubPassed, SubWinner} {
		sub.Status = status
		assert.Error(t, canAccept(activeContest(1), sub), "status %s", status)
	}

	ct := activeContest(1)
	ct.Status = ContestCancelled
	sub.Status = SubPending
	assert.Error(t, canAccept(ct, sub))
}

func TestCanPass_CurrentRoundPendingOnly(t *testing.T) {
	sub := Submission{ContestID: 1, Round: 2, Status: SubPending}
	assert.NoError(t, canPass(activeContest(2), sub))

	// cannot pass a stale round's submission
	err := canPass(activeContest(3), sub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "round")

	sub.Round = 2
	for _, status := range []string{SubAccepted, SubPassed, SubWinner, SubModification} {
		sub.Status = status
		assert.Error(t, canPass(activeContest(2), sub), "status %s", status)
	}
}

// ------------------- modification enablement -------------------

func TestCanEnableModification(t *testing.T) {
	sub := Submission{ContestID: 1, Round: 1, Status: SubAccepted}
	assert.NoError(t, canEnableModification(activeContest(1), sub))

	sub.Status = SubPending
	assert.Error(t, canEnableModification(activeContest(1), sub))

	ct := activeContest(1)
	ct.Status = ContestCompleted
	sub.Status = SubAccepted
	assert.Error(t, canEnableModification(ct, sub))
}

// ------------------- delete -------------------

func TestCanDeleteSubmission(t *testing.T) {
	sub := Submission{ID: 5, DesignerID: 20, Status: SubPending}
	assert.NoError(t, canDeleteSubmission(sub, 20))

	assert.Error(t, canDeleteSubmission(sub, 21), "another designer")

	for _, status := range []string{SubAccepted, SubPassed, SubWinner, SubModification} {
		sub.Status = status
		assert.Error(t, canDeleteSubmission(sub, 20), "status %s", status)
	}
}

// ------------------- create submission decision -------------------

func TestDecideSubmit_NewSubmission(t *testing.T) {
	action, err := decideSubmit(activeContest(1), nil, false)
	require.NoError(t, err)
	assert.Equal(t, submitNew, action)
}

func TestDecideSubmit_InactiveContest(t *testing.T) {
	for _, status := range []string{ContestDraft, ContestCompleted, ContestCancelled} {
		ct := activeContest(1)
		ct.Status = status
		_, err := decideSubmit(ct, nil, false)
		assert.Error(t, err, "status %s", status)
	}
}

func TestDecideSubmit_DuplicateRejected(t *testing.T) {
	for _, status := range []string{SubPending, SubAccepted} {
		existing := &Submission{Status: status, Round: 1}
		_, err := decideSubmit(activeContest(1), existing, false)
		require.Error(t, err, "status %s", status)
		assert.Contains(t, err.Error(), "already have")
	}
}

func TestDecideSubmit_PassedIsReplaced(t *testing.T) {
	existing := &Submission{Status: SubPassed, Round: 1}
	action, err := decideSubmit(activeContest(1), existing, false)
	require.NoError(t, err)
	assert.Equal(t, submitReplacePassed, action)
}

func TestDecideSubmit_Modification(t *testing.T) {
	// owner granted a modification on the accepted submission
	granted := &Submission{Status: SubAccepted, ModificationsAllowed: true, Round: 1}
	action, err := decideSubmit(activeContest(1), granted, true)
	require.NoError(t, err)
	assert.Equal(t, submitModification, action)

	// not granted
	notGranted := &Submission{Status: SubAccepted, Round: 1}
	_, err = decideSubmit(activeContest(1), notGranted, true)
	assert.Error(t, err)

	// nothing accepted to modify
	_, err = decideSubmit(activeContest(1), nil, true)
	assert.Error(t, err)

	pending := &Submission{Status: SubPending, Round: 1}
	_, err = decideSubmit(activeContest(1), pending, true)
	assert.Error(t, err)
}

func TestDecideSubmit_ModificationGrantIsSingleUse(t *testing.T) {
	granted := &Submission{Status: SubAccepted, ModificationsAllowed: true, Round: 1}
	action, err := decideSubmit(activeContest(1), granted, true)
	require.NoError(t, err)
	assert.Equal(t, submitModification, action)

	// creating the modification row clears the grant, so a second attempt
	// needs a fresh request from the owner
	granted.ModificationsAllowed = false
	_, err = decideSubmit(activeContest(1), granted, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has not requested")
}
