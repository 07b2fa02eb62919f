package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomKey_OrderIndependent(t *testing.T) {
	for i := 0; i < 50; i++ {
		a, b := uuid.New(), uuid.New()
		k1 := NewRoomKey(a, b)
		k2 := NewRoomKey(b, a)
		assert.Equal(t, k1, k2)
		assert.Equal(t, k1.String(), k2.String())
		assert.Equal(t, k1.String(), NewRoomKey(a, b).String(), "derivation must be pure")
	}
}

func TestParseRoomKey_RoundTrip(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	k := NewRoomKey(a, b)

	parsed, err := ParseRoomKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	reversed, err := ParseRoomKey(k.B.String() + ":" + k.A.String())
	require.NoError(t, err)
	assert.Equal(t, k, reversed)
}

func TestParseRoomKey_Invalid(t *testing.T) {
	a := uuid.New()
	for _, raw := range []string{
		"",
		a.String(),
		a.String() + ":" + a.String(),
		a.String() + ":not-a-uuid",
		a.String() + ":" + uuid.Nil.String(),
		a.String() + ":" + uuid.New().String() + ":" + uuid.New().String(),
	} {
		_, err := ParseRoomKey(raw)
		assert.ErrorIs(t, err, ErrInvalidRoomKey, "input %q", raw)
	}
}

func TestRoomKey_SeparatorNotInIDs(t *testing.T) {
	id := uuid.New().String()
	assert.False(t, strings.Contains(id, roomKeySeparator))
}

func TestRoomKey_HasAndPeer(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	k := NewRoomKey(a, b)

	assert.True(t, k.Has(a))
	assert.True(t, k.Has(b))
	assert.False(t, k.Has(c))
	assert.False(t, k.Has(uuid.Nil))
	assert.Equal(t, b, k.Peer(a))
	assert.Equal(t, a, k.Peer(b))
	assert.Equal(t, uuid.Nil, k.Peer(c))
}

func TestAvailabilitySlot_Decorate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	student := uuid.New()

	past := AvailabilitySlot{EndTime: now.Add(-time.Minute)}
	past.Decorate(now)
	assert.True(t, past.Expired)
	assert.Empty(t, past.BookedUsers)
	assert.NotNil(t, past.BookedUsers)

	booked := AvailabilitySlot{EndTime: now.Add(time.Hour), BookedBy: &student}
	booked.Decorate(now)
	assert.False(t, booked.Expired)
	assert.Equal(t, []uuid.UUID{student}, booked.BookedUsers)
}

func TestCallInvitation_Live(t *testing.T) {
	now := time.Now()
	inv := CallInvitation{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, inv.Live(now))

	inv.Ended = true
	assert.False(t, inv.Live(now))

	inv = CallInvitation{ExpiresAt: now}
	assert.False(t, inv.Live(now))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleStudent.Valid())
	assert.True(t, RoleTutor.Valid())
	assert.False(t, Role("teacher").Valid())
	assert.False(t, Role("").Valid())
}
