package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomsJoinLeave(t *testing.T) {
	r := newRooms()
	h1 := newTestHandler(1)
	h2 := newTestHandler(2)

	r.join(10, h1)
	r.join(10, h2)
	r.join(11, h1)

	assert.ElementsMatch(t, []*Handler{h1, h2}, r.handlers(10))
	assert.True(t, r.contains(10, 1))
	assert.True(t, r.contains(11, 1))
	assert.False(t, r.contains(11, 2))

	// Joining twice is a no-op.
	r.join(10, h1)
	assert.Len(t, r.handlers(10), 2)

	r.leave(10, h1)
	assert.ElementsMatch(t, []*Handler{h2}, r.handlers(10))
	assert.False(t, r.contains(10, 1))

	// Leaving a room never joined is harmless.
	r.leave(99, h1)
}

func TestRoomsLeaveAll(t *testing.T) {
	r := newRooms()
	h1 := newTestHandler(1)
	h2 := newTestHandler(2)

	r.join(10, h1)
	r.join(11, h1)
	r.join(10, h2)

	left := r.leaveAll(h1)
	assert.ElementsMatch(t, []int64{10, 11}, left)
	assert.False(t, r.contains(10, 1))
	assert.False(t, r.contains(11, 1))
	assert.True(t, r.contains(10, 2))

	assert.Empty(t, r.leaveAll(h1))
}
