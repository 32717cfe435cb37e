package store

import (
	"context"
	"errors"

	"minichat/directory"
)

// Message content types, mirroring the client enum.
const (
	TypeText      = "text"
	TypeImage     = "image"
	TypeVideo     = "video"
	TypeAudio     = "audio"
	TypeLocation  = "location"
	TypePostShare = "post_share"
)

var (
	ErrNotFound       = errors.New("store: not found")
	ErrNotParticipant = errors.New("store: not a participant")
)

// ValidType reports whether t is a known message type.
func ValidType(t string) bool {
	switch t {
	case TypeText, TypeImage, TypeVideo, TypeAudio, TypeLocation, TypePostShare:
		return true
	}
	return false
}

// Media is an attached blob reference. The blob itself lives in the
// external storage collaborator, only URLs are kept here.
type Media struct {
	Url       string `json:"url"`
	Type      string `json:"type,omitempty"` // image, video, audio
	Thumbnail string `json:"thumbnail,omitempty"`
}

// ReadReceipt records one reader of a message. At most one entry per user.
type ReadReceipt struct {
	Uid    int64 `json:"user"`
	ReadAt int64 `json:"readAt"` // unix millis
}

type Reaction struct {
	Uid        int64  `json:"user"`
	Emoji      string `json:"emoji"`
	CreateTime int64  `json:"createdAt"` // unix millis
}

// Message is an append-only message record. Only the delivered/read flags,
// the read-by set and reactions change after creation.
type Message struct {
	Id             int64          `json:"id"`
	ConversationId int64          `json:"conversationId"`
	SenderId       int64          `json:"senderId"`
	Content        string         `json:"content,omitempty"`
	Type           string         `json:"messageType"`
	Media          []*Media       `json:"media,omitempty"`
	Delivered      bool           `json:"delivered"`
	IsRead         bool           `json:"isRead"`
	ReadBy         []*ReadReceipt `json:"readBy,omitempty"`
	Reactions      []*Reaction    `json:"reactions,omitempty"`
	RepliedToId    int64          `json:"repliedTo,omitempty"`
	CreateTime     int64          `json:"createdAt"` // unix millis, defines retrieval order

	// Sender profile, attached by the delivery engine from the user
	// directory. Never persisted here.
	Sender *directory.User `json:"sender,omitempty"`
}

// NewMessage is the input to AppendMessage.
type NewMessage struct {
	ConversationId int64
	SenderId       int64
	Content        string
	Type           string
	Media          []*Media
	RepliedToId    int64
}

// Conversation groups messages among a fixed participant set.
//
// For direct conversations the `pending` flag implements the first-contact
// gate: it is raised when the first message lands and lowered permanently
// once any other participant replies. Group conversations are never pending.
type Conversation struct {
	Id             int64   `json:"id"`
	IsGroup        bool    `json:"isGroup"`
	Pending        bool    `json:"pending"`
	FirstSenderId  int64   `json:"-"`
	LastMessageId  int64   `json:"-"`
	GroupName      string  `json:"groupName,omitempty"`
	GroupPhoto     string  `json:"groupPhoto,omitempty"`
	ParticipantIds []int64 `json:"participantIds"`
	MutedBy        []int64 `json:"mutedBy,omitempty"`
	CreateTime     int64   `json:"createdAt"` // unix millis
	UpdateTime     int64   `json:"updatedAt"` // unix millis

	// Enriched by the delivery engine, never persisted here.
	// LastMessage is a hint: readers must not treat it as ground truth
	// for "has any messages" (the message log query is).
	Participants []*directory.User `json:"participants,omitempty"`
	LastMessage  *Message          `json:"lastMessage,omitempty"`
}

// HasParticipant reports whether uid belongs to the conversation.
func (c *Conversation) HasParticipant(uid int64) bool {
	for _, id := range c.ParticipantIds {
		if id == uid {
			return true
		}
	}
	return false
}

// IChatStore persists conversations and their append-only message logs.
type IChatStore interface {
	// FindOrCreateDirect returns the single direct conversation for the
	// unordered pair (uidA, uidB), creating it if absent. Concurrent calls
	// with the same pair yield exactly one record; the duplicate-key race
	// is absorbed internally. The second return is true when a new record
	// was created.
	FindOrCreateDirect(ctx context.Context, uidA, uidB int64) (*Conversation, bool, error)

	// GetConversation returns the conversation or ErrNotFound.
	GetConversation(ctx context.Context, id int64) (*Conversation, error)

	// ListConversations returns every conversation uid participates in,
	// most recently updated first, with last messages attached.
	ListConversations(ctx context.Context, uid int64) ([]*Conversation, error)

	// DeleteConversation removes the conversation and cascades deletion of
	// its messages, media, read receipts and reactions. Returns
	// ErrNotFound if absent, ErrNotParticipant if uid does not belong.
	DeleteConversation(ctx context.Context, id, uid int64) error

	// SetMuted adds or removes uid from the conversation's mute set.
	SetMuted(ctx context.Context, id, uid int64, muted bool) error

	// AppendMessage persists a message, updates the conversation's
	// last-message pointer and applies the pending-gate transition, all
	// under a row lock on the conversation. Returns ErrNotFound or
	// ErrNotParticipant without any state change.
	AppendMessage(ctx context.Context, in *NewMessage) (*Message, error)

	// GetMessage returns a single message with its media, read-by set and
	// reactions, or ErrNotFound.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// ListMessages returns one page of a conversation's messages in
	// ascending (create_time, id) order. page starts at 1.
	ListMessages(ctx context.Context, conversationId int64, page, limit int) ([]*Message, error)

	// MarkRead idempotently adds uid to the read-by set of each listed
	// message it did not author, flips the delivered/read flags, and
	// returns the ids actually eligible (own messages are skipped).
	MarkRead(ctx context.Context, conversationId, uid int64, messageIds []int64) ([]int64, error)

	// CountUnread counts messages in the conversation that uid has not
	// read and did not author.
	CountUnread(ctx context.Context, conversationId, uid int64) (int32, error)

	// AddReaction sets uid's reaction on a message, replacing any prior one.
	AddReaction(ctx context.Context, messageId, uid int64, emoji string) error

	IsDupKeyError(err error) bool
}
