package chat

import (
	"context"
	"strings"

	"github.com/golang/glog"

	"minichat/directory"
	"minichat/store"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100

	searchMinLen   = 2
	searchMaxUsers = 20
)

// Service is the delivery engine: it orchestrates message creation,
// persistence, live fanout to connected participants and notification of
// online-but-elsewhere participants. Both the websocket and the REST
// surfaces call into it.
type Service struct {
	store  store.IChatStore
	dir    directory.Directory
	pusher Pusher
	sink   EventSink
}

func NewService(st store.IChatStore, dir directory.Directory) *Service {
	return &Service{store: st, dir: dir}
}

// SetPusher wires the live delivery surface. The hub needs the service and
// the service needs the hub, so this is attached after construction.
func (s *Service) SetPusher(p Pusher) { s.pusher = p }

// SetSink wires the optional outbound event stream.
func (s *Service) SetSink(sink EventSink) { s.sink = sink }

// SendMessageInput carries one send request. Either ConversationId or
// ReceiverId (direct send by peer, creating the conversation on first
// contact) must be set.
type SendMessageInput struct {
	ConversationId int64
	ReceiverId     int64
	Content        string
	Type           string
	Media          []*store.Media
	RepliedToId    int64
}

func (s *Service) validateSend(in *SendMessageInput, sender int64) error {
	var reasons []string

	if in.Type == "" {
		in.Type = store.TypeText
	}
	if !store.ValidType(in.Type) {
		reasons = append(reasons, "unknown message type: "+in.Type)
	}
	if in.Type == store.TypeText && strings.TrimSpace(in.Content) == "" {
		reasons = append(reasons, "content is required for text messages")
	}
	if in.ConversationId == 0 {
		if in.ReceiverId == 0 {
			reasons = append(reasons, "conversation or receiver is required")
		} else if in.ReceiverId == sender {
			reasons = append(reasons, "cannot message yourself")
		}
	}

	if len(reasons) > 0 {
		return invalid(reasons...)
	}
	return nil
}

// SendMessage validates, persists and fans out one message. The returned
// conversation reflects the post-append pending state.
func (s *Service) SendMessage(ctx context.Context, sender int64, in *SendMessageInput) (*store.Message, *store.Conversation, error) {
	if err := s.validateSend(in, sender); err != nil {
		return nil, nil, err
	}

	if in.ConversationId == 0 {
		conv, _, err := s.store.FindOrCreateDirect(ctx, sender, in.ReceiverId)
		if err != nil {
			return nil, nil, err
		}
		in.ConversationId = conv.Id
	}

	msg, err := s.store.AppendMessage(ctx, &store.NewMessage{
		ConversationId: in.ConversationId,
		SenderId:       sender,
		Content:        strings.TrimSpace(in.Content),
		Type:           in.Type,
		Media:          in.Media,
		RepliedToId:    in.RepliedToId,
	})
	if err != nil {
		return nil, nil, err
	}

	conv, err := s.store.GetConversation(ctx, in.ConversationId)
	if err != nil {
		return nil, nil, err
	}

	s.enrichMessages(ctx, msg)
	s.fanout(ctx, conv, msg)

	if s.sink != nil {
		s.sink.MessageSent(conv.Id, msg)
	}
	return msg, conv, nil
}

// fanout pushes the persisted message to the conversation's live channel,
// then notifies each other participant who is online but not joined to it.
// Offline participants pick the message up on their next fetch.
func (s *Service) fanout(ctx context.Context, conv *store.Conversation, msg *store.Message) {
	if s.pusher == nil {
		return
	}

	s.pusher.PushRoom(conv.Id, 0, &ServerEvent{NewMessage: msg})

	muted := make(map[int64]bool, len(conv.MutedBy))
	for _, uid := range conv.MutedBy {
		muted[uid] = true
	}

	for _, uid := range conv.ParticipantIds {
		if uid == msg.SenderId || muted[uid] {
			continue
		}
		if !s.pusher.IsOnline(uid) || s.pusher.InRoom(conv.Id, uid) {
			continue
		}

		unread, err := s.store.CountUnread(ctx, conv.Id, uid)
		if err != nil {
			glog.Errorf("count unread err, conversation: %d, uid: %d, err: %v", conv.Id, uid, err)
			unread = 1
		}
		s.pusher.PushUser(uid, &ServerEvent{Notification: &MessageNotification{
			ConversationId: conv.Id,
			Message:        msg,
			UnreadCount:    unread,
		}})
	}
}

// CreateOrFetchDirect returns the single direct conversation with the peer,
// creating an empty (non-pending) record when none exists.
func (s *Service) CreateOrFetchDirect(ctx context.Context, uid, peerId int64) (*store.Conversation, error) {
	if peerId == 0 {
		return nil, invalid("participant id is required")
	}
	if peerId == uid {
		return nil, invalid("cannot start a conversation with yourself")
	}
	if _, err := s.dir.Get(ctx, peerId); err != nil {
		return nil, err
	}

	conv, created, err := s.store.FindOrCreateDirect(ctx, uid, peerId)
	if err != nil {
		return nil, err
	}
	if created {
		glog.V(5).Infof("created direct conversation %d for pair (%d, %d)", conv.Id, uid, peerId)
	}
	s.enrichConversations(ctx, conv)
	return conv, nil
}

// ListConversations returns the caller's conversations, peers and last
// messages attached, most recently active first.
func (s *Service) ListConversations(ctx context.Context, uid int64) ([]*store.Conversation, error) {
	convs, err := s.store.ListConversations(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.enrichConversations(ctx, convs...)
	return convs, nil
}

// GetConversationFor returns the conversation if uid participates in it.
func (s *Service) GetConversationFor(ctx context.Context, uid, id int64) (*store.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(uid) {
		return nil, store.ErrNotParticipant
	}
	return conv, nil
}

// ListMessages returns one ascending page of the conversation's log.
func (s *Service) ListMessages(ctx context.Context, uid, conversationId int64, page, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if _, err := s.GetConversationFor(ctx, uid, conversationId); err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, conversationId, page, limit)
	if err != nil {
		return nil, err
	}
	s.enrichMessages(ctx, msgs...)
	return msgs, nil
}

// MarkRead records read receipts for the given messages and broadcasts
// `messages_read` to the conversation channel. Messages authored by the
// reader are silently skipped.
func (s *Service) MarkRead(ctx context.Context, uid, conversationId int64, messageIds []int64) ([]int64, error) {
	if len(messageIds) == 0 {
		return nil, invalid("message ids are required")
	}

	marked, err := s.store.MarkRead(ctx, conversationId, uid, messageIds)
	if err != nil {
		return nil, err
	}

	if len(marked) > 0 && s.pusher != nil {
		s.pusher.PushRoom(conversationId, uid, &ServerEvent{MessagesRead: &MessagesRead{
			MessageIds: marked,
			ReadBy:     uid,
		}})
	}
	return marked, nil
}

// AddReaction sets the caller's reaction on a message and broadcasts it.
func (s *Service) AddReaction(ctx context.Context, uid, messageId int64, emoji string) error {
	if strings.TrimSpace(emoji) == "" {
		return invalid("emoji is required")
	}
	if err := s.store.AddReaction(ctx, messageId, uid, emoji); err != nil {
		return err
	}

	if s.pusher != nil {
		if msg, err := s.store.GetMessage(ctx, messageId); err == nil {
			s.pusher.PushRoom(msg.ConversationId, 0, &ServerEvent{Reaction: &MessageReaction{
				MessageId: messageId,
				UserId:    uid,
				Emoji:     emoji,
			}})
		}
	}
	return nil
}

func (s *Service) SetMuted(ctx context.Context, uid, conversationId int64, muted bool) error {
	return s.store.SetMuted(ctx, conversationId, uid, muted)
}

func (s *Service) DeleteConversation(ctx context.Context, uid, conversationId int64) error {
	return s.store.DeleteConversation(ctx, conversationId, uid)
}

// SearchResult is the combined conversation/user search response.
type SearchResult struct {
	Conversations []*store.Conversation `json:"conversations"`
	Users         []*directory.User     `json:"users"`
}

// Search matches users and the caller's direct conversations by
// case-insensitive peer-name substring. Queries shorter than two runes
// return an empty result.
func (s *Service) Search(ctx context.Context, uid int64, query string) (*SearchResult, error) {
	out := &SearchResult{
		Conversations: []*store.Conversation{},
		Users:         []*directory.User{},
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < searchMinLen {
		return out, nil
	}
	needle := strings.ToLower(query)

	users, err := s.dir.Search(ctx, query, uid, searchMaxUsers)
	if err != nil {
		return nil, err
	}
	if users != nil {
		out.Users = users
	}

	convs, err := s.ListConversations(ctx, uid)
	if err != nil {
		return nil, err
	}
	for _, conv := range convs {
		if conv.IsGroup {
			continue
		}
		for _, p := range conv.Participants {
			if p.Id == uid {
				continue
			}
			if strings.Contains(strings.ToLower(p.Name), needle) ||
				strings.Contains(strings.ToLower(p.Username), needle) {
				out.Conversations = append(out.Conversations, conv)
				break
			}
		}
	}
	return out, nil
}

// PresenceChanged flips the directory's online flag and broadcasts the
// status change to every other participant of every conversation the user
// is in. Best-effort on all sides: presence transitions never fail.
func (s *Service) PresenceChanged(ctx context.Context, uid int64, online bool) {
	if err := s.dir.SetOnline(ctx, uid, online); err != nil {
		glog.Errorf("set online err, uid: %d, err: %v", uid, err)
	}

	if s.pusher != nil {
		ev := &ServerEvent{UserStatus: &UserStatus{UserId: uid, IsOnline: online}}
		for _, peer := range s.conversationPeers(ctx, uid) {
			s.pusher.PushUser(peer, ev)
		}
	}

	if s.sink != nil {
		s.sink.PresenceChanged(uid, online)
	}
}

// conversationPeers returns the distinct other participants across all of
// the user's conversations.
func (s *Service) conversationPeers(ctx context.Context, uid int64) []int64 {
	convs, err := s.store.ListConversations(ctx, uid)
	if err != nil {
		glog.Errorf("list conversations err, uid: %d, err: %v", uid, err)
		return nil
	}

	seen := make(map[int64]bool)
	var out []int64
	for _, conv := range convs {
		for _, pid := range conv.ParticipantIds {
			if pid != uid && !seen[pid] {
				seen[pid] = true
				out = append(out, pid)
			}
		}
	}
	return out
}

// enrichMessages attaches sender profiles from the user directory.
func (s *Service) enrichMessages(ctx context.Context, msgs ...*store.Message) {
	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.SenderId)
	}
	users, err := s.dir.GetMany(ctx, ids)
	if err != nil {
		glog.Errorf("enrich messages: directory err: %v", err)
		return
	}
	for _, m := range msgs {
		m.Sender = users[m.SenderId]
	}
}

// enrichConversations attaches participant profiles and last-message senders.
func (s *Service) enrichConversations(ctx context.Context, convs ...*store.Conversation) {
	var ids []int64
	for _, conv := range convs {
		ids = append(ids, conv.ParticipantIds...)
		if conv.LastMessage != nil {
			ids = append(ids, conv.LastMessage.SenderId)
		}
	}
	users, err := s.dir.GetMany(ctx, ids)
	if err != nil {
		glog.Errorf("enrich conversations: directory err: %v", err)
		return
	}
	for _, conv := range convs {
		conv.Participants = conv.Participants[:0]
		for _, pid := range conv.ParticipantIds {
			if u := users[pid]; u != nil {
				conv.Participants = append(conv.Participants, u)
			}
		}
		if conv.LastMessage != nil {
			conv.LastMessage.Sender = users[conv.LastMessage.SenderId]
		}
	}
}
