package service

import (
	"fmt"

	bookingserrors "drxcare/internal/bookings/errors"
	"drxcare/pkg/logger"
	"drxcare/pkg/model"
)

// State is a step of a reservation attempt. Only held, confirmed and
// canceled are ever persisted; the rest exist while a request is running.
type State string

const (
	StateNone       State = "none"
	StateHolding    State = "holding"
	StateHeld       State = "held"
	StateConfirming State = "confirming"
	StateConfirmed  State = "confirmed"
	StateFailed     State = "failed"
	StateCanceling  State = "canceling"
	StateCanceled   State = "canceled"
)

var transitions = map[State][]State{
	StateNone:       {StateHolding},
	StateHolding:    {StateHeld, StateFailed},
	StateHeld:       {StateConfirming, StateCanceling},
	StateConfirming: {StateConfirmed, StateCanceling},
	StateCanceling:  {StateCanceled},
}

func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func stateOf(status model.BookingStatus) State {
	switch status {
	case model.BookingHeld:
		return StateHeld
	case model.BookingConfirmed:
		return StateConfirmed
	case model.BookingCanceled:
		return StateCanceled
	default:
		return StateNone
	}
}

// saga tracks one reservation attempt through the state machine.
type saga struct {
	state State
	log   *logger.Logger
}

func newSaga(from State, log *logger.Logger) *saga {
	return &saga{state: from, log: log}
}

func (s *saga) advance(to State) error {
	if !s.state.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", bookingserrors.ErrIllegalTransition, s.state, to)
	}
	s.log.Debug("Reservation state changed", "from", s.state, "to", to)
	s.state = to
	return nil
}

func (s *saga) State() State {
	return s.state
}
