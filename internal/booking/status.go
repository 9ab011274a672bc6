package booking

import (
	"fmt"
	"time"

	"kitchenhub/internal/model"
)

// Actor is who requests a status change.
type Actor string

const (
	ActorOwner  Actor = "owner"
	ActorRenter Actor = "renter"
	ActorSystem Actor = "system"
)

// Machine is the booking status transition table.
type Machine struct {
	transitions map[model.Status]map[model.Status][]Actor
}

// NewMachine creates the state machine:
//
//	pending   -> confirmed (owner)
//	pending   -> cancelled (owner, renter)
//	confirmed -> cancelled (owner, renter)
//	confirmed -> completed (owner, system)
//
// cancelled and completed are terminal.
func NewMachine() *Machine {
	return &Machine{
		transitions: map[model.Status]map[model.Status][]Actor{
			model.StatusPending: {
				model.StatusConfirmed: {ActorOwner},
				model.StatusCancelled: {ActorOwner, ActorRenter},
			},
			model.StatusConfirmed: {
				model.StatusCancelled: {ActorOwner, ActorRenter},
				model.StatusCompleted: {ActorOwner, ActorSystem},
			},
		},
	}
}

// CanTransition checks if from -> to exists for any actor.
func (m *Machine) CanTransition(from, to model.Status) bool {
	_, ok := m.transitions[from][to]
	return ok
}

// Allowed checks if actor may move a booking from -> to.
func (m *Machine) Allowed(from, to model.Status, actor Actor) bool {
	actors, ok := m.transitions[from][to]
	if !ok {
		return false
	}
	for _, a := range actors {
		if a == actor {
			return true
		}
	}
	return false
}

// ActorFor resolves which side of the booking the session acts as.
// A user who both owns the kitchen and rented it acts according to the session role.
func ActorFor(b *model.Booking, kitchenOwnerID int64, s model.Session) (Actor, error) {
	isOwner := s.UserID == kitchenOwnerID
	isRenter := s.UserID == b.RenterID
	switch {
	case isOwner && isRenter:
		if s.IsOwner() {
			return ActorOwner, nil
		}
		return ActorRenter, nil
	case isOwner:
		return ActorOwner, nil
	case isRenter:
		return ActorRenter, nil
	}
	return "", fmt.Errorf("user %d is not a participant of booking %d: %w", s.UserID, b.ID, ErrForbidden)
}

// Check validates a transition for actor at time now.
func (m *Machine) Check(b *model.Booking, to model.Status, actor Actor, now time.Time) error {
	if !m.CanTransition(b.Status, to) {
		return &TransitionError{From: string(b.Status), To: string(to)}
	}
	if !m.Allowed(b.Status, to, actor) {
		return fmt.Errorf("%s may not change booking %d to %s: %w", actor, b.ID, to, ErrForbidden)
	}
	ended := !now.Before(b.EndTime)
	switch to {
	case model.StatusCompleted:
		if !ended {
			return &TransitionError{From: string(b.Status), To: string(to)}
		}
	case model.StatusCancelled:
		if ended {
			return &TransitionError{From: string(b.Status), To: string(to)}
		}
	}
	return nil
}

// Authorize resolves the actor for s and validates the transition.
func (m *Machine) Authorize(b *model.Booking, kitchenOwnerID int64, s model.Session, to model.Status, now time.Time) (Actor, error) {
	actor, err := ActorFor(b, kitchenOwnerID, s)
	if err != nil {
		return "", err
	}
	return actor, m.Check(b, to, actor, now)
}

// DisplayStatus is the label shown to users: a confirmed booking whose end
// has passed reads as completed even before it is stored as such.
func DisplayStatus(b *model.Booking, now time.Time) model.Status {
	if b.Status == model.StatusConfirmed && !now.Before(b.EndTime) {
		return model.StatusCompleted
	}
	return b.Status
}
