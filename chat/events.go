package chat

import "minichat/store"

// Server-to-client event payloads. The wire envelope carries exactly one of
// these per event, keyed by the event name.

type MessageNotification struct {
	ConversationId int64          `json:"conversationId"`
	Message        *store.Message `json:"message"`
	UnreadCount    int32          `json:"unreadCount"`
}

type UserStatus struct {
	UserId   int64 `json:"userId"`
	IsOnline bool  `json:"isOnline"`
}

type UserTyping struct {
	UserId   int64 `json:"userId"`
	IsTyping bool  `json:"isTyping"`
}

type MessagesRead struct {
	MessageIds []int64 `json:"messageIds"`
	ReadBy     int64   `json:"readBy"`
}

type MessageReaction struct {
	MessageId int64  `json:"messageId"`
	UserId    int64  `json:"userId"`
	Emoji     string `json:"emoji"`
}

type EventError struct {
	Error string `json:"error"`
}

// ServerEvent is the event envelope pushed to connected clients.
type ServerEvent struct {
	NewMessage    *store.Message       `json:"new_message,omitempty"`
	Notification  *MessageNotification `json:"message_notification,omitempty"`
	UserStatus    *UserStatus          `json:"user_status_changed,omitempty"`
	UserTyping    *UserTyping          `json:"user_typing,omitempty"`
	MessagesRead  *MessagesRead        `json:"messages_read,omitempty"`
	Reaction      *MessageReaction     `json:"message_reaction,omitempty"`
	Error         *EventError          `json:"message_error,omitempty"`
}

func ErrorEvent(msg string) *ServerEvent {
	return &ServerEvent{Error: &EventError{Error: msg}}
}

// Pusher is the live delivery surface, implemented by the websocket hub.
// All pushes are best-effort: no delivery guarantee, no retry.
type Pusher interface {
	// PushRoom delivers to every connection currently joined to the
	// conversation's channel, except the one registered for exceptUid
	// (0 excludes nobody).
	PushRoom(conversationId, exceptUid int64, ev *ServerEvent)

	// PushUser delivers to the user's registered connection, if any.
	PushUser(uid int64, ev *ServerEvent)

	// IsOnline consults the presence registry.
	IsOnline(uid int64) bool

	// InRoom reports whether the user's connection has joined the
	// conversation's channel.
	InRoom(conversationId, uid int64) bool
}

// EventSink receives domain events for out-of-process consumers. Publishing
// is fire-and-forget.
type EventSink interface {
	MessageSent(conversationId int64, m *store.Message)
	PresenceChanged(uid int64, online bool)
}
