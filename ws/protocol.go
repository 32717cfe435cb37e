package ws

import (
	"encoding/json"

	"minichat/store"
)

// Session identifies one live websocket connection.
type Session struct {
	Uid        int64  `json:"uid"`
	Sid        string `json:"sid"`
	CreateTime int64  `json:"create_time"`
	Ip         string `json:"ip"`
}

func (s *Session) String() string {
	out, _ := json.Marshal(s)
	return string(out)
}

// ClientEvent is the client-to-server event envelope. Exactly one field is
// set per incoming frame.
type ClientEvent struct {
	UserOnline  *UserOnlineReq   `json:"user_online,omitempty"`
	Join        *ConversationRef `json:"join_conversation,omitempty"`
	Leave       *ConversationRef `json:"leave_conversation,omitempty"`
	SendMessage *SendMessageReq  `json:"send_message,omitempty"`
	TypingStart *ConversationRef `json:"typing_start,omitempty"`
	TypingStop  *ConversationRef `json:"typing_stop,omitempty"`
	MarkRead    *MarkReadReq     `json:"mark_as_read,omitempty"`
}

// UserOnlineReq announces the caller's identity. The uid is resolved by the
// identity collaborator at upgrade time; a mismatching explicit userId is
// rejected.
type UserOnlineReq struct {
	UserId int64 `json:"userId,omitempty"`
}

type ConversationRef struct {
	ConversationId int64 `json:"conversationId"`
}

type SendMessageReq struct {
	ConversationId int64          `json:"conversationId"`
	Content        string         `json:"content,omitempty"`
	MessageType    string         `json:"messageType,omitempty"`
	Media          []*store.Media `json:"media,omitempty"`
	RepliedTo      int64          `json:"repliedTo,omitempty"`
}

type MarkReadReq struct {
	ConversationId int64   `json:"conversationId"`
	MessageIds     []int64 `json:"messageIds"`
}
