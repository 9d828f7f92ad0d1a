package room

import "tictactoe_online/internal/domain"

// State is the explicit lifecycle position of a room. It is computed
// from the shared record, never stored, so the record and the machine
// cannot drift apart.
//
// Transitions:
//
//	AwaitingJoiner → InProgress        joiner seat taken
//	InProgress     → Finished          win or full board, inside the move transaction
//	Finished       → RematchPending    either player votes rematch
//	RematchPending → InProgress        both votes in, creator resets
//	any            → Closed            record deleted (explicit close or disconnect cleanup)
type State int

const (
	StateAwaitingJoiner State = iota
	StateInProgress
	StateFinished
	StateRematchPending
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingJoiner:
		return "awaiting_joiner"
	case StateInProgress:
		return "in_progress"
	case StateFinished:
		return "finished"
	case StateRematchPending:
		return "rematch_pending"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateOf maps a room record (nil when deleted) to its lifecycle state.
func StateOf(r *domain.Room) State {
	switch {
	case r == nil:
		return StateClosed
	case r.Joiner == nil:
		return StateAwaitingJoiner
	case !r.GameOver:
		return StateInProgress
	case len(r.Rematch) > 0:
		return StateRematchPending
	default:
		return StateFinished
	}
}
