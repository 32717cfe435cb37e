package ws

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"minichat/chat"
	"minichat/store"
)

func TestAppendDataChanNeverBlocks(t *testing.T) {
	h := newTestHandler(1)
	h.dataChan = make(chan *SessionData, 1)

	h.sendEvent(chat.ErrorEvent("one"))

	// A full chan must drop, not block while holding the handler mutex:
	// close() contends on that mutex once sendLoop stops draining.
	done := make(chan struct{})
	go func() {
		h.sendEvent(chat.ErrorEvent("two"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send on a full data chan blocked")
	}
	assert.Len(t, h.dataChan, 1)
}

func TestClosingHandlerDropsEvents(t *testing.T) {
	h := newTestHandler(1)
	h.dataChan = make(chan *SessionData, 1)

	assert.False(t, h.isClosing())
	h.Lock()
	h.closing = true
	h.Unlock()
	assert.True(t, h.isClosing())

	h.sendEvent(chat.ErrorEvent("late"))
	assert.Empty(t, h.dataChan)
}

func TestClientReason(t *testing.T) {
	verr := &chat.ValidationError{Reasons: []string{"content is required for text messages"}}
	assert.Equal(t, verr.Error(), clientReason(verr))

	assert.Equal(t, "conversation not found", clientReason(store.ErrNotFound))
	assert.Equal(t, "not a participant of the conversation", clientReason(store.ErrNotParticipant))

	// DB and other internals stay masked.
	assert.Equal(t, "temporary failure, please retry", clientReason(errors.New("dial tcp: refused")))
}

func TestEventKind(t *testing.T) {
	cases := []struct {
		ev   *chat.ServerEvent
		kind string
	}{
		{&chat.ServerEvent{NewMessage: &store.Message{}}, "new_message"},
		{&chat.ServerEvent{Notification: &chat.MessageNotification{}}, "message_notification"},
		{&chat.ServerEvent{UserStatus: &chat.UserStatus{}}, "user_status_changed"},
		{&chat.ServerEvent{UserTyping: &chat.UserTyping{}}, "user_typing"},
		{&chat.ServerEvent{MessagesRead: &chat.MessagesRead{}}, "messages_read"},
		{&chat.ServerEvent{Reaction: &chat.MessageReaction{}}, "message_reaction"},
		{chat.ErrorEvent("boom"), "message_error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, eventKind(tc.ev))
	}
}
