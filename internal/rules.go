package internal

import "fmt"

// StateError is a rejected precondition on contest/submission state. The
// message is surfaced verbatim to the caller.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return e.Reason }

func stateErrf(format string, args ...any) *StateError {
	return &StateError{Reason: fmt.Sprintf(format, args...)}
}

// ------------------- contest lifecycle guards -------------------

func canPublish(ct Contest) error {
	if ct.Status != ContestDraft {
		return stateErrf("contest is %s, only a draft can be published", ct.Status)
	}
	return nil
}

func canEditContest(ct Contest) error {
	if ct.Status != ContestDraft && ct.Status != ContestActive {
		return stateErrf("contest is %s and can no longer be edited", ct.Status)
	}
	return nil
}

// canAdvanceRound checks the round transition. acceptedInRound is the number
// of accepted submissions in the contest's current round.
func canAdvanceRound(ct Contest, acceptedInRound int) error {
	if ct.Status != ContestActive {
		return stateErrf("contest is %s, only an active contest can advance", ct.Status)
	}
	if ct.Round >= maxRound {
		return stateErrf("contest is already in the final round %d", maxRound)
	}
	if acceptedInRound == 0 {
		return stateErrf("no accepted submissions in round %d, accept at least one before advancing", ct.Round)
	}
	return nil
}

// canCancel enforces the irreversibility rule: once any round 1 submission
// has been accepted the contest is committed to progressing and can never be
// cancelled.
func canCancel(ct Contest, acceptedInRoundOne bool) error {
	if ct.Status == ContestCompleted || ct.Status == ContestCancelled {
		return stateErrf("contest is already %s", ct.Status)
	}
	if acceptedInRoundOne {
		return stateErrf("a round 1 submission was accepted, the contest is committed to round 2 and cannot be cancelled")
	}
	return nil
}

func canSelectWinner(ct Contest, sub Submission) error {
	if ct.Status != ContestActive {
		return stateErrf("contest is %s, winners can only be selected on an active contest", ct.Status)
	}
	if ct.Round != maxRound {
		return stateErrf("contest is in round %d, winners are selected in round %d", ct.Round, maxRound)
	}
	if sub.ContestID != ct.ID {
		return stateErrf("submission does not belong to this contest")
	}
	if sub.Round != maxRound {
		return stateErrf("submission is from round %d, only round %d submissions can win", sub.Round, maxRound)
	}
	if sub.Status != SubAccepted {
		return stateErrf("submission is %s, only an accepted submission can win", sub.Status)
	}
	return nil
}

// winnerQuotaMet reports whether the contest has collected enough winners to
// complete. Meeting the quota exactly completes the contest.
func winnerQuotaMet(ct Contest, winners int) bool {
	return winners >= ct.WinnersNeeded
}

// ------------------- submission review guards -------------------

func canAccept(ct Contest, sub Submission) error {
	if ct.Status != ContestActive {
		return stateErrf("contest is %s, submissions can only be reviewed on an active contest", ct.Status)
	}
	if sub.Status != SubPending && sub.Status != SubModification {
		return stateErrf("submission is %s and cannot be accepted", sub.Status)
	}
	return nil
}

func canPass(ct Contest, sub Submission) error {
	if ct.Status != ContestActive {
		return stateErrf("contest is %s, submissions can only be reviewed on an active contest", ct.Status)
	}
	if sub.Round != ct.Round {
		return stateErrf("submission is from round %d, only round %d submissions can be passed", sub.Round, ct.Round)
	}
	if sub.Status != SubPending {
		return stateErrf("submission is %s, only a pending submission can be passed", sub.Status)
	}
	return nil
}

func canEnableModification(ct Contest, sub Submission) error {
	if ct.Status != ContestActive {
		return stateErrf("contest is %s, modifications can only be requested on an active contest", ct.Status)
	}
	if sub.Status != SubAccepted {
		return stateErrf("submission is %s, modifications can only be requested on an accepted submission", sub.Status)
	}
	return nil
}

func canDeleteSubmission(sub Submission, actorID int) error {
	if sub.DesignerID != actorID {
		return stateErrf("submission belongs to another designer")
	}
	if sub.Status != SubPending {
		return stateErrf("submission is %s, only a pending submission can be deleted", sub.Status)
	}
	return nil
}

// submitAction is the outcome of the create-submission decision for the
// (contest, designer, current round) triple.
type submitAction int

const (
	submitNew           submitAction = iota // no prior row, create pending
	submitReplacePassed                     // prior row passed, delete it then create pending
	submitModification                      // create a modification row alongside the accepted one
	submitRejected
)

// decideSubmit applies the one-submission-per-round rule. existing is the
// designer's non-modification submission for the contest's current round,
// nil if there is none.
func decideSubmit(ct Contest, existing *Submission, isModification bool) (submitAction, error) {
	if ct.Status != ContestActive {
		return submitRejected, stateErrf("contest is %s and is not taking submissions", ct.Status)
	}
	if existing == nil {
		if isModification {
			return submitRejected, stateErrf("no accepted submission to modify in round %d", ct.Round)
		}
		return submitNew, nil
	}
	if isModification {
		if existing.Status != SubAccepted {
			return submitRejected, stateErrf("modification requires an accepted submission, yours is %s", existing.Status)
		}
		if !existing.ModificationsAllowed {
			return submitRejected, stateErrf("the contest owner has not requested a modification on this submission")
		}
		return submitModification, nil
	}
	if existing.Status == SubPassed {
		return submitReplacePassed, nil
	}
	return submitRejected, stateErrf("you already have a %s submission in round %d", existing.Status, ct.Round)
}
