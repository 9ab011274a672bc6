package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenhub/internal/model"
)

func TestMachine_Allowed(t *testing.T) {
	m := NewMachine()

	tests := []struct {
		name  string
		from  model.Status
		to    model.Status
		actor Actor
		want  bool
	}{
		{"owner confirms", model.StatusPending, model.StatusConfirmed, ActorOwner, true},
		{"renter cannot confirm", model.StatusPending, model.StatusConfirmed, ActorRenter, false},
		{"renter cancels pending", model.StatusPending, model.StatusCancelled, ActorRenter, true},
		{"owner cancels confirmed", model.StatusConfirmed, model.StatusCancelled, ActorOwner, true},
		{"system completes", model.StatusConfirmed, model.StatusCompleted, ActorSystem, true},
		{"renter cannot complete", model.StatusConfirmed, model.StatusCompleted, ActorRenter, false},
		{"pending cannot complete", model.StatusPending, model.StatusCompleted, ActorSystem, false},
		{"cancelled is terminal", model.StatusCancelled, model.StatusPending, ActorOwner, false},
		{"completed is terminal", model.StatusCompleted, model.StatusCancelled, ActorOwner, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Allowed(tt.from, tt.to, tt.actor))
		})
	}
}

func TestMachine_Authorize(t *testing.T) {
	m := NewMachine()
	const ownerID, renterID = 100, 200
	b := &model.Booking{ID: 1, RenterID: renterID, StartTime: at(10, 0), EndTime: at(11, 0), Status: model.StatusPending}
	before := at(9, 0)

	owner := model.Session{UserID: ownerID, Role: model.RoleOwner}
	renter := model.Session{UserID: renterID, Role: model.RoleRenter}
	stranger := model.Session{UserID: 300, Role: model.RoleOwner}

	actor, err := m.Authorize(b, ownerID, owner, model.StatusConfirmed, before)
	require.NoError(t, err)
	assert.Equal(t, ActorOwner, actor)

	_, err = m.Authorize(b, ownerID, renter, model.StatusConfirmed, before)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = m.Authorize(b, ownerID, stranger, model.StatusCancelled, before)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = m.Authorize(b, ownerID, renter, model.StatusCancelled, before)
	assert.NoError(t, err)

	_, err = m.Authorize(b, ownerID, renter, model.StatusCancelled, at(12, 0))
	assert.ErrorIs(t, err, ErrInvalidTransition, "ended bookings cannot be cancelled")

	confirmed := *b
	confirmed.Status = model.StatusConfirmed
	_, err = m.Authorize(&confirmed, ownerID, owner, model.StatusCompleted, before)
	assert.ErrorIs(t, err, ErrInvalidTransition, "cannot complete before end")

	_, err = m.Authorize(&confirmed, ownerID, owner, model.StatusCompleted, at(11, 0))
	assert.NoError(t, err)

	done := *b
	done.Status = model.StatusCancelled
	_, err = m.Authorize(&done, ownerID, owner, model.StatusConfirmed, before)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestActorFor_SelfBooking(t *testing.T) {
	b := &model.Booking{ID: 1, RenterID: 100}

	actor, err := ActorFor(b, 100, model.Session{UserID: 100, Role: model.RoleRenter})
	require.NoError(t, err)
	assert.Equal(t, ActorRenter, actor)

	actor, err = ActorFor(b, 100, model.Session{UserID: 100, Role: model.RoleOwner})
	require.NoError(t, err)
	assert.Equal(t, ActorOwner, actor)
}

func TestDisplayStatus(t *testing.T) {
	b := &model.Booking{StartTime: at(10, 0), EndTime: at(11, 0), Status: model.StatusConfirmed}
	assert.Equal(t, model.StatusConfirmed, DisplayStatus(b, at(10, 30)))
	assert.Equal(t, model.StatusCompleted, DisplayStatus(b, at(11, 0)))

	b.Status = model.StatusPending
	assert.Equal(t, model.StatusPending, DisplayStatus(b, at(12, 0)))
}
