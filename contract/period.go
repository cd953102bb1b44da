package contract

import (
	"fmt"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// Phase is the position of a round in its period state machine. It is
// derived from the period bounds and the current time, never stored.
type Phase uint8

const (
	// PhasePreProposal: the proposal period has not started.
	PhasePreProposal Phase = iota
	// PhaseProposing: proposals may be created.
	PhaseProposing
	// PhasePreVoting: the proposal period is over and voting has not
	// started.
	PhasePreVoting
	// PhaseVoting: votes may be created.
	PhaseVoting
	// PhaseClosed: voting is over. Nothing transitions out of it.
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhasePreProposal:
		return "PreProposal"
	case PhaseProposing:
		return "Proposing"
	case PhasePreVoting:
		return "PreVoting"
	case PhaseVoting:
		return "Voting"
	case PhaseClosed:
		return "Closed"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// Started reports whether start is set and t has reached it.
func Started(t uint64, start *uint64) bool {
	return start != nil && t >= *start
}

// Ended reports whether end is set and t is past it. An unset end is
// never reached.
func Ended(t uint64, end *uint64) bool {
	return end != nil && t > *end
}

// InPeriod reports whether t lies inside the window [start, end].
func InPeriod(t uint64, start, end *uint64) bool {
	return Started(t, start) && !Ended(t, end)
}

// CurrentPhase derives the phase of s at time t.
func CurrentPhase(t uint64, s *types.State) Phase {
	switch {
	case !Started(t, s.ProposalPeriodStart):
		return PhasePreProposal
	case !Ended(t, s.ProposalPeriodEnd):
		return PhaseProposing
	case !Started(t, s.VotingPeriodStart):
		return PhasePreVoting
	case !Ended(t, s.VotingPeriodEnd):
		return PhaseVoting
	default:
		return PhaseClosed
	}
}

// --- Transitions ---
//
// Each transition checks its precondition against the current time and
// only then sets the bound, to at when given and to now otherwise. The
// caller has already checked that the sender is the owner.

func boundAt(now uint64, at *uint64) *uint64 {
	if at != nil {
		return types.At(*at)
	}
	return types.At(now)
}

func startProposalPeriod(s *types.State, now uint64, at *uint64) error {
	if Started(now, s.ProposalPeriodStart) {
		return fundround.NewInvalidPeriodError(fundround.PeriodProposal)
	}
	s.ProposalPeriodStart = boundAt(now, at)
	return nil
}

func endProposalPeriod(s *types.State, now uint64, at *uint64) error {
	if !InPeriod(now, s.ProposalPeriodStart, s.ProposalPeriodEnd) {
		return fundround.NewInvalidPeriodError(fundround.PeriodProposal)
	}
	s.ProposalPeriodEnd = boundAt(now, at)
	return nil
}

func startVotingPeriod(s *types.State, now uint64, at *uint64) error {
	if !Ended(now, s.ProposalPeriodEnd) || Started(now, s.VotingPeriodStart) {
		return fundround.NewInvalidPeriodError(fundround.PeriodVoting)
	}
	s.VotingPeriodStart = boundAt(now, at)
	return nil
}

func endVotingPeriod(s *types.State, now uint64, at *uint64) error {
	if !InPeriod(now, s.VotingPeriodStart, s.VotingPeriodEnd) {
		return fundround.NewInvalidPeriodError(fundround.PeriodVoting)
	}
	s.VotingPeriodEnd = boundAt(now, at)
	return nil
}

// validateBounds checks the ordering of initial period bounds: each
// window must not end before it starts, and the proposal window must
// end before voting starts.
func validateBounds(msg types.InitMsg) error {
	if msg.ProposalPeriodStart != nil && msg.ProposalPeriodEnd != nil &&
		*msg.ProposalPeriodEnd < *msg.ProposalPeriodStart {
		return fundround.NewInvalidPeriodError(fundround.PeriodProposal)
	}
	if msg.VotingPeriodStart != nil && msg.VotingPeriodEnd != nil &&
		*msg.VotingPeriodEnd < *msg.VotingPeriodStart {
		return fundround.NewInvalidPeriodError(fundround.PeriodVoting)
	}
	if msg.ProposalPeriodEnd != nil && msg.VotingPeriodStart != nil &&
		*msg.VotingPeriodStart <= *msg.ProposalPeriodEnd {
		return fundround.NewInvalidPeriodError(fundround.PeriodVoting)
	}
	return nil
}
