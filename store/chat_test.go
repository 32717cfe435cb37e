package store

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dsn = "root:@tcp(127.0.0.1:3306)/minichat?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci"
)

// openTestStore connects to the local test database, skipping the test when
// it is unreachable. Tables come from dev/schema.sql.
func openTestStore(t *testing.T) *chatStore {
	t.Helper()

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("mysql unavailable: %v", err)
	}

	for _, table := range []string{
		"message_reactions", "message_reads", "message_media",
		"messages", "conversation_participants", "conversations",
	} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("clean table %s: %v", table, err)
		}
	}

	t.Cleanup(func() { _ = db.Close() })
	return &chatStore{db}
}

func TestFindOrCreateDirectSymmetry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c1, created, err := s.FindOrCreateDirect(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, c1.Pending)
	assert.False(t, c1.IsGroup)
	assert.Nil(t, c1.LastMessage)
	assert.ElementsMatch(t, []int64{1, 2}, c1.ParticipantIds)

	// Reversed pair resolves to the same record.
	c2, created, err := s.FindOrCreateDirect(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, c1.Id, c2.Id)
}

func TestFindOrCreateDirectConcurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const n = 20
	ids := make([]int64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uidA, uidB := int64(7), int64(8)
			if i%2 == 1 {
				uidA, uidB = uidB, uidA
			}
			c, _, err := s.FindOrCreateDirect(ctx, uidA, uidB)
			if err != nil {
				t.Errorf("FindOrCreateDirect: %v", err)
				return
			}
			ids[i] = c.Id
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Equal(t, ids[0], ids[i], "concurrent find-or-create diverged")
	}
}

func TestPendingTransition(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Conversation created empty ahead of the first message: not pending.
	conv, _, err := s.FindOrCreateDirect(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, conv.Pending)

	send := func(sender int64, content string) *Message {
		m, err := s.AppendMessage(ctx, &NewMessage{
			ConversationId: conv.Id,
			SenderId:       sender,
			Content:        content,
			Type:           TypeText,
		})
		require.NoError(t, err)
		return m
	}

	// First message raises the gate.
	m1 := send(1, "hi")
	got, err := s.GetConversation(ctx, conv.Id)
	require.NoError(t, err)
	assert.True(t, got.Pending)
	assert.Equal(t, int64(1), got.FirstSenderId)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, m1.Id, got.LastMessage.Id)

	// Another message from the initiator keeps it pending.
	send(1, "you there?")
	got, err = s.GetConversation(ctx, conv.Id)
	require.NoError(t, err)
	assert.True(t, got.Pending)

	// The recipient's reply lowers the gate for good.
	m3 := send(2, "hello")
	got, err = s.GetConversation(ctx, conv.Id)
	require.NoError(t, err)
	assert.False(t, got.Pending)
	assert.Equal(t, m3.Id, got.LastMessage.Id)

	// Further messages from the initiator never raise it again.
	send(1, "great")
	got, err = s.GetConversation(ctx, conv.Id)
	require.NoError(t, err)
	assert.False(t, got.Pending)
}

func TestGroupConversationNeverPending(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// No creation path for groups exists yet; seed the row directly.
	now := time.Now()
	res, err := s.Exec("INSERT INTO conversations (is_group,pending,group_name,create_time,update_time) VALUES (1,0,?,?,?)",
		"team", now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	for _, uid := range []int64{1, 2, 3} {
		_, err := s.Exec("INSERT INTO conversation_participants (conversation_id,uid,muted) VALUES (?,?,0)", id, uid)
		require.NoError(t, err)
	}

	// The first-contact gate applies to direct conversations only: neither
	// the first message nor any reply may flip a group to pending.
	for _, sender := range []int64{1, 2, 1} {
		m, err := s.AppendMessage(ctx, &NewMessage{
			ConversationId: id,
			SenderId:       sender,
			Content:        "hi",
			Type:           TypeText,
		})
		require.NoError(t, err)

		got, err := s.GetConversation(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.IsGroup)
		assert.False(t, got.Pending)
		assert.Zero(t, got.FirstSenderId)
		require.NotNil(t, got.LastMessage)
		assert.Equal(t, m.Id, got.LastMessage.Id)
	}
}

func TestAppendMessageChecks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.AppendMessage(ctx, &NewMessage{ConversationId: 12345, SenderId: 1, Content: "x", Type: TypeText})
	assert.Equal(t, ErrNotFound, err)

	conv, _, err := s.FindOrCreateDirect(ctx, 1, 2)
	require.NoError(t, err)

	_, err = s.AppendMessage(ctx, &NewMessage{ConversationId: conv.Id, SenderId: 99, Content: "x", Type: TypeText})
	assert.Equal(t, ErrNotParticipant, err)
}

func TestListMessagesOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conv, _, err := s.FindOrCreateDirect(ctx, 1, 2)
	require.NoError(t, err)

	const n = 8
	var inserted []int64
	for i := 0; i < n; i++ {
		sender := int64(1 + i%2)
		m, err := s.AppendMessage(ctx, &NewMessage{
			ConversationId: conv.Id,
			SenderId:       sender,
			Content:        "msg",
			Type:           TypeText,
		})
		require.NoError(t, err)
		inserted = append(inserted, m.Id)
	}

	msgs, err := s.ListMessages(ctx, conv.Id, 1, n)
	require.NoError(t, err)
	require.Len(t, msgs, n)

	for i, m := range msgs {
		assert.Equal(t, inserted[i], m.Id, "retrieval order differs from insertion order")
		if i > 0 {
			assert.GreaterOrEqual(t, m.CreateTime, msgs[i-1].CreateTime)
		}
	}

	// Offset pagination.
	page2, err := s.ListMessages(ctx, conv.Id, 2, 3)
	require.NoError(t, err)
	require.Len(t, page2, 3)
	assert.Equal(t, inserted[3], page2[0].Id)
}

func TestMarkReadIdempotence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conv, _, err := s.FindOrCreateDirect(ctx, 1, 2)
	require.NoError(t, err)

	m1, err := s.AppendMessage(ctx, &NewMessage{ConversationId: conv.Id, SenderId: 1, Content: "hi", Type: TypeText})
	require.NoError(t, err)

	// Reader marks twice: one entry.
	for i := 0; i < 2; i++ {
		marked, err := s.MarkRead(ctx, conv.Id, 2, []int64{m1.Id})
		require.NoError(t, err)
		assert.Equal(t, []int64{m1.Id}, marked)
	}

	got, err := s.GetMessage(ctx, m1.Id)
	require.NoError(t, err)
	require.Len(t, got.ReadBy, 1)
	assert.Equal(t, int64(2), got.ReadBy[0].Uid)
	assert.True(t, got.IsRead)
	assert.True(t, got.Delivered)

	// The sender cannot self-mark.
	marked, err := s.MarkRead(ctx, conv.Id, 1, []int64{m1.Id})
	require.NoError(t, err)
	assert.Empty(t, marked)

	got, err = s.GetMessage(ctx, m1.Id)
	require.NoError(t, err)
	require.Len(t, got.ReadBy, 1)
	assert.Equal(t, int64(2), got.ReadBy[0].Uid)
}

func TestCountUnread(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conv, _, err := s.FindOrCreateDirect(ctx, 1, 2)
	require.NoError(t, err)

	var first int64
	for i := 0; i < 3; i++ {
		m, err := s.AppendMessage(ctx, &NewMessage{ConversationId: conv.Id, SenderId: 1, Content: "hi", Type: TypeText})
		require.NoError(t, err)
		if i == 0 {
			first = m.Id
		}
	}

	n, err := s.CountUnread(ctx, conv.Id, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(3), n)

	// Own messages never count.
	n, err = s.CountUnread(ctx, conv.Id, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(0), n)

	_, err = s.MarkRead(ctx, conv.Id, 2, []int64{first})
	require.NoError(t, err)

	n, err = s.CountUnread(ctx, conv.Id, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), n)
}

func TestDeleteConversationCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conv, _, err := s.FindOrCreateDirect(ctx, 1, 2)
	require.NoError(t, err)

	m, err := s.AppendMessage(ctx, &NewMessage{
		ConversationId: conv.Id,
		SenderId:       1,
		Content:        "hi",
		Type:           TypeText,
		Media:          []*Media{{Url: "https://cdn/x.jpg", Type: "image"}},
	})
	require.NoError(t, err)
	_, err = s.MarkRead(ctx, conv.Id, 2, []int64{m.Id})
	require.NoError(t, err)

	// Outsiders cannot delete.
	assert.Equal(t, ErrNotParticipant, s.DeleteConversation(ctx, conv.Id, 99))

	require.NoError(t, s.DeleteConversation(ctx, conv.Id, 1))

	_, err = s.GetConversation(ctx, conv.Id)
	assert.Equal(t, ErrNotFound, err)
	_, err = s.GetMessage(ctx, m.Id)
	assert.Equal(t, ErrNotFound, err)

	var n int
	require.NoError(t, s.QueryRowContext(ctx, "SELECT COUNT(*) FROM message_reads WHERE message_id=?", m.Id).Scan(&n))
	assert.Zero(t, n)
}

func TestSetMuted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conv, _, err := s.FindOrCreateDirect(ctx, 1, 2)
	require.NoError(t, err)

	require.NoError(t, s.SetMuted(ctx, conv.Id, 2, true))
	got, err := s.GetConversation(ctx, conv.Id)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, got.MutedBy)

	require.NoError(t, s.SetMuted(ctx, conv.Id, 2, false))
	got, err = s.GetConversation(ctx, conv.Id)
	require.NoError(t, err)
	assert.Empty(t, got.MutedBy)

	assert.Equal(t, ErrNotFound, s.SetMuted(ctx, 12345, 2, true))
	assert.Equal(t, ErrNotParticipant, s.SetMuted(ctx, conv.Id, 99, true))
}

func TestPairKey(t *testing.T) {
	assert.Equal(t, "1:2", pairKey(1, 2))
	assert.Equal(t, "1:2", pairKey(2, 1))
	assert.Equal(t, "5:5", pairKey(5, 5))
}
