package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestHandler(uid int64) *Handler {
	return &Handler{session: &Session{Uid: uid, Sid: "test"}}
}

func TestPresenceRegisterLastWins(t *testing.T) {
	p := newPresence()
	h1 := newTestHandler(1)
	h2 := newTestHandler(1)

	assert.Nil(t, p.register(h1))
	assert.True(t, p.isOnline(1))
	assert.Same(t, h1, p.get(1))

	// A second connection for the same user displaces the first.
	assert.Same(t, h1, p.register(h2))
	assert.Same(t, h2, p.get(1))

	// Re-registering the current connection displaces nothing.
	assert.Nil(t, p.register(h2))
}

func TestPresenceUnregisterOnlyCurrent(t *testing.T) {
	p := newPresence()
	h1 := newTestHandler(1)
	h2 := newTestHandler(1)

	p.register(h1)
	p.register(h2)

	// The displaced connection's teardown must not clobber the newer one.
	assert.False(t, p.unregister(h1))
	assert.True(t, p.isOnline(1))

	assert.True(t, p.unregister(h2))
	assert.False(t, p.isOnline(1))
	assert.Nil(t, p.get(1))
}
