package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang/glog"
)

const (
	insertMessageSQL = "INSERT INTO messages (conversation_id,sender_id,content,message_type,delivered,is_read,replied_to_id,create_time) VALUES (?,?,?,?,0,0,?,?)"
	insertMediaSQL   = "INSERT INTO message_media (message_id,url,media_type,thumbnail) VALUES (?,?,?,?)"

	lockConversationSQL = "SELECT is_group,pending,first_sender_id,last_message_id FROM conversations WHERE id=? FOR UPDATE"
	isParticipantSQL    = "SELECT 1 FROM conversation_participants WHERE conversation_id=? AND uid=?"
	updateTailSQL       = "UPDATE conversations SET last_message_id=?, pending=?, first_sender_id=?, update_time=? WHERE id=?"
	getMsgTimeSQL       = "SELECT create_time FROM messages WHERE id=?"

	messageFields   = "id,conversation_id,sender_id,content,message_type,delivered,is_read,replied_to_id,create_time"
	getMessageSQL   = "SELECT " + messageFields + " FROM messages WHERE id=?"
	listMessagesSQL = "SELECT " + messageFields + " FROM messages WHERE conversation_id=? " +
		"ORDER BY create_time ASC, id ASC LIMIT ? OFFSET ?"

	getMediaSQL     = "SELECT message_id,url,media_type,thumbnail FROM message_media WHERE message_id IN (%s)"
	getReadsSQL     = "SELECT message_id,uid,read_at FROM message_reads WHERE message_id IN (%s) ORDER BY read_at"
	getReactionsSQL = "SELECT message_id,uid,emoji,create_time FROM message_reactions WHERE message_id IN (%s)"

	eligibleReadSQL  = "SELECT id FROM messages WHERE id IN (%s) AND conversation_id=? AND sender_id<>?"
	insertReadSQL    = "INSERT INTO message_reads (message_id,uid,read_at) VALUES (?,?,?) ON DUPLICATE KEY UPDATE message_id=message_id"
	markReadFlagsSQL = "UPDATE messages SET delivered=1, is_read=1 WHERE id IN (%s)"

	countUnreadSQL = "SELECT COUNT(m.id) FROM messages AS m " +
		"LEFT JOIN message_reads AS r ON r.message_id = m.id AND r.uid = ? " +
		"WHERE m.conversation_id = ? AND m.sender_id <> ? AND r.uid IS NULL"

	upsertReactionSQL = "INSERT INTO message_reactions (message_id,uid,emoji,create_time) VALUES (?,?,?,?) " +
		"ON DUPLICATE KEY UPDATE emoji=VALUES(emoji), create_time=VALUES(create_time)"
)

func scanMessage(row interface{ Scan(...interface{}) error }) (*Message, error) {
	var m Message
	var content sql.NullString
	var repliedTo sql.NullInt64
	var createTime time.Time

	if err := row.Scan(&m.Id, &m.ConversationId, &m.SenderId, &content, &m.Type,
		&m.Delivered, &m.IsRead, &repliedTo, &createTime); err != nil {
		return nil, err
	}
	m.Content = content.String
	m.RepliedToId = repliedTo.Int64
	m.CreateTime = createTime.UnixMilli()
	return &m, nil
}

// AppendMessage serializes on the conversation row lock, so the pending
// transition and the last-message pointer cannot race with a concurrent
// send into the same conversation. Message creation times are clamped to
// the previous message's time to keep the log order non-decreasing.
func (s *chatStore) AppendMessage(ctx context.Context, in *NewMessage) (*Message, error) {
	var msgId int64
	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var isGroup, pending bool
		var firstSender, lastMessage sql.NullInt64
		row := tx.QueryRowContext(ctx, lockConversationSQL, in.ConversationId)
		if err := row.Scan(&isGroup, &pending, &firstSender, &lastMessage); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			glog.Errorf("lock conversation scan err: %v", err)
			return err
		}

		var one int
		if err := tx.QueryRowContext(ctx, isParticipantSQL, in.ConversationId, in.SenderId).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotParticipant
			}
			return err
		}

		now := time.Now()
		if lastMessage.Valid {
			var prev time.Time
			if err := tx.QueryRowContext(ctx, getMsgTimeSQL, lastMessage.Int64).Scan(&prev); err == nil && now.Before(prev) {
				now = prev
			}
		}

		var content interface{}
		if in.Content != "" {
			content = in.Content
		}
		var repliedTo interface{}
		if in.RepliedToId != 0 {
			repliedTo = in.RepliedToId
		}
		res, err := tx.ExecContext(ctx, insertMessageSQL,
			in.ConversationId, in.SenderId, content, in.Type, repliedTo, now)
		if err != nil {
			glog.Errorf("insert message exec err: %v", err)
			return err
		}
		msgId, err = res.LastInsertId()
		if err != nil {
			return err
		}

		for _, media := range in.Media {
			if _, err := tx.ExecContext(ctx, insertMediaSQL, msgId, media.Url, media.Type, media.Thumbnail); err != nil {
				glog.Errorf("insert media exec err: %v", err)
				return err
			}
		}

		// First-contact gate. A direct conversation turns pending when its
		// first message lands, and leaves pending for good once any other
		// participant replies. Groups never gate.
		firstSenderId := firstSender.Int64
		if !isGroup {
			if !lastMessage.Valid {
				pending = true
				firstSenderId = in.SenderId
			} else if pending && in.SenderId != firstSenderId {
				pending = false
			}
		}

		var firstSenderArg interface{}
		if firstSenderId != 0 {
			firstSenderArg = firstSenderId
		}
		if _, err := tx.ExecContext(ctx, updateTailSQL, msgId, pending, firstSenderArg, now, in.ConversationId); err != nil {
			glog.Errorf("update conversation tail exec err: %v", err)
			return err
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}

	return s.GetMessage(ctx, msgId)
}

func (s *chatStore) GetMessage(ctx context.Context, id int64) (*Message, error) {
	m, err := scanMessage(s.QueryRowContext(ctx, getMessageSQL, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		glog.Errorf("get message scan err: %v", err)
		return nil, err
	}
	if err := s.fillMessageDetails(ctx, []*Message{m}); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *chatStore) ListMessages(ctx context.Context, conversationId int64, page, limit int) ([]*Message, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	rows, err := s.QueryContext(ctx, listMessagesSQL, conversationId, limit, offset)
	if err != nil {
		glog.Errorf("list messages query err: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.fillMessageDetails(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// fillMessageDetails batches media, read receipts and reactions for a page
// of messages with one IN query per detail table.
func (s *chatStore) fillMessageDetails(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	byId := make(map[int64]*Message, len(msgs))
	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		byId[m.Id] = m
		ids = append(ids, m.Id)
	}
	args := int64Args(ids)
	ph := placeholders(len(ids))

	rows, err := s.QueryContext(ctx, fmt.Sprintf(getMediaSQL, ph), args...)
	if err != nil {
		glog.Errorf("get media query err: %v", err)
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var msgId int64
		var media Media
		if err := rows.Scan(&msgId, &media.Url, &media.Type, &media.Thumbnail); err != nil {
			return err
		}
		if m := byId[msgId]; m != nil {
			m.Media = append(m.Media, &media)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.QueryContext(ctx, fmt.Sprintf(getReadsSQL, ph), args...)
	if err != nil {
		glog.Errorf("get reads query err: %v", err)
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var msgId int64
		var r ReadReceipt
		var readAt time.Time
		if err := rows.Scan(&msgId, &r.Uid, &readAt); err != nil {
			return err
		}
		r.ReadAt = readAt.UnixMilli()
		if m := byId[msgId]; m != nil {
			m.ReadBy = append(m.ReadBy, &r)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.QueryContext(ctx, fmt.Sprintf(getReactionsSQL, ph), args...)
	if err != nil {
		glog.Errorf("get reactions query err: %v", err)
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var msgId int64
		var r Reaction
		var createTime time.Time
		if err := rows.Scan(&msgId, &r.Uid, &r.Emoji, &createTime); err != nil {
			return err
		}
		r.CreateTime = createTime.UnixMilli()
		if m := byId[msgId]; m != nil {
			m.Reactions = append(m.Reactions, &r)
		}
	}
	return rows.Err()
}

// attachLastMessages resolves the last-message hints of conversations.
func (s *chatStore) attachLastMessages(ctx context.Context, convs []*Conversation) error {
	var ids []int64
	for _, c := range convs {
		if c.LastMessageId != 0 {
			ids = append(ids, c.LastMessageId)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	q := fmt.Sprintf("SELECT "+messageFields+" FROM messages WHERE id IN (%s)", placeholders(len(ids)))
	rows, err := s.QueryContext(ctx, q, int64Args(ids)...)
	if err != nil {
		glog.Errorf("get last messages query err: %v", err)
		return err
	}
	defer rows.Close()

	byId := make(map[int64]*Message, len(ids))
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return err
		}
		byId[m.Id] = m
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, c := range convs {
		// Absent row is fine: the pointer is a hint and the cascade may
		// have won a race with this read.
		c.LastMessage = byId[c.LastMessageId]
	}
	return nil
}

func (s *chatStore) MarkRead(ctx context.Context, conversationId, uid int64, messageIds []int64) ([]int64, error) {
	if len(messageIds) == 0 {
		return nil, nil
	}

	var marked []int64
	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, isParticipantSQL, conversationId, uid).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				if _, err := s.getConversation(ctx, tx, getConversationSQL, conversationId); err != nil {
					return err
				}
				return ErrNotParticipant
			}
			return err
		}

		// Own messages are silently skipped: a sender cannot self-mark.
		q := fmt.Sprintf(eligibleReadSQL, placeholders(len(messageIds)))
		args := append(int64Args(messageIds), conversationId, uid)
		rows, err := tx.QueryContext(ctx, q, args...)
		if err != nil {
			glog.Errorf("eligible read query err: %v", err)
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			marked = append(marked, id)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(marked) == 0 {
			return nil
		}

		now := time.Now()
		for _, id := range marked {
			if _, err := tx.ExecContext(ctx, insertReadSQL, id, uid, now); err != nil {
				glog.Errorf("insert read exec err: %v", err)
				return err
			}
		}

		q = fmt.Sprintf(markReadFlagsSQL, placeholders(len(marked)))
		if _, err := tx.ExecContext(ctx, q, int64Args(marked)...); err != nil {
			glog.Errorf("mark read flags exec err: %v", err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marked, nil
}

func (s *chatStore) CountUnread(ctx context.Context, conversationId, uid int64) (int32, error) {
	var out sql.NullInt32
	if err := s.QueryRowContext(ctx, countUnreadSQL, uid, conversationId, uid).Scan(&out); err != nil {
		glog.Errorf("count unread scan err: %v", err)
		return 0, err
	}
	return out.Int32, nil
}

func (s *chatStore) AddReaction(ctx context.Context, messageId, uid int64, emoji string) error {
	return s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		m, err := scanMessage(tx.QueryRowContext(ctx, getMessageSQL, messageId))
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}

		var one int
		if err := tx.QueryRowContext(ctx, isParticipantSQL, m.ConversationId, uid).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotParticipant
			}
			return err
		}

		_, err = tx.ExecContext(ctx, upsertReactionSQL, messageId, uid, emoji, time.Now())
		if err != nil {
			glog.Errorf("upsert reaction exec err: %v", err)
		}
		return err
	})
}
