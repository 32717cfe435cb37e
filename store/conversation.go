package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/golang/glog"
)

const (
	insertConversationSQL = "INSERT INTO conversations (is_group,pending,pair_key,create_time,update_time) VALUES (0,0,?,?,?)"
	insertParticipantSQL  = "INSERT INTO conversation_participants (conversation_id,uid,muted) VALUES (?,?,0)"

	conversationFields = "id,is_group,pending,first_sender_id,last_message_id,group_name,group_photo,create_time,update_time"

	getConversationSQL   = "SELECT " + conversationFields + " FROM conversations WHERE id=?"
	getByPairKeySQL      = "SELECT " + conversationFields + " FROM conversations WHERE pair_key=?"
	listConversationsSQL = "SELECT c.id,c.is_group,c.pending,c.first_sender_id,c.last_message_id,c.group_name,c.group_photo,c.create_time,c.update_time " +
		"FROM conversations AS c, conversation_participants AS p " +
		"WHERE p.uid = ? AND p.conversation_id = c.id " +
		"ORDER BY c.update_time DESC"
	getParticipantsSQL = "SELECT uid,muted FROM conversation_participants WHERE conversation_id=? ORDER BY uid"
	setMutedSQL        = "UPDATE conversation_participants SET muted=? WHERE conversation_id=? AND uid=?"
)

const (
	deleteReactionsSQL    = "DELETE FROM message_reactions WHERE message_id IN (SELECT id FROM messages WHERE conversation_id=?)"
	deleteReadsSQL        = "DELETE FROM message_reads WHERE message_id IN (SELECT id FROM messages WHERE conversation_id=?)"
	deleteMediaSQL        = "DELETE FROM message_media WHERE message_id IN (SELECT id FROM messages WHERE conversation_id=?)"
	deleteMessagesSQL     = "DELETE FROM messages WHERE conversation_id=?"
	deleteParticipantsSQL = "DELETE FROM conversation_participants WHERE conversation_id=?"
	deleteConversationSQL = "DELETE FROM conversations WHERE id=?"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func scanConversation(row interface{ Scan(...interface{}) error }) (*Conversation, error) {
	var c Conversation
	var firstSender, lastMessage sql.NullInt64
	var groupName, groupPhoto sql.NullString
	var createTime, updateTime time.Time

	if err := row.Scan(&c.Id, &c.IsGroup, &c.Pending, &firstSender, &lastMessage,
		&groupName, &groupPhoto, &createTime, &updateTime); err != nil {
		return nil, err
	}
	c.FirstSenderId = firstSender.Int64
	c.LastMessageId = lastMessage.Int64
	c.GroupName = groupName.String
	c.GroupPhoto = groupPhoto.String
	c.CreateTime = createTime.UnixMilli()
	c.UpdateTime = updateTime.UnixMilli()
	return &c, nil
}

func (s *chatStore) loadParticipants(ctx context.Context, q queryer, c *Conversation) error {
	rows, err := q.QueryContext(ctx, getParticipantsSQL, c.Id)
	if err != nil {
		glog.Errorf("get participants query err: %v", err)
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var uid int64
		var muted bool
		if err := rows.Scan(&uid, &muted); err != nil {
			return err
		}
		c.ParticipantIds = append(c.ParticipantIds, uid)
		if muted {
			c.MutedBy = append(c.MutedBy, uid)
		}
	}
	return rows.Err()
}

func (s *chatStore) getConversation(ctx context.Context, q queryer, query string, arg interface{}) (*Conversation, error) {
	c, err := scanConversation(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		glog.Errorf("get conversation scan err: %v", err)
		return nil, err
	}
	if err := s.loadParticipants(ctx, q, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *chatStore) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	c, err := s.getConversation(ctx, s.DB, getConversationSQL, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachLastMessages(ctx, []*Conversation{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// FindOrCreateDirect inserts first and falls back to a read on duplicate
// key, so concurrent callers with the same unordered pair converge on one
// row without a read-then-write window.
func (s *chatStore) FindOrCreateDirect(ctx context.Context, uidA, uidB int64) (*Conversation, bool, error) {
	key := pairKey(uidA, uidB)

	var id int64
	now := time.Now()
	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertConversationSQL, key, now, now)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		for _, uid := range []int64{uidA, uidB} {
			if _, err := tx.ExecContext(ctx, insertParticipantSQL, id, uid); err != nil {
				glog.Errorf("insert participant exec err: %v", err)
				return err
			}
		}
		return nil
	})

	if err == nil {
		c, err := s.GetConversation(ctx, id)
		return c, true, err
	}
	if !s.IsDupKeyError(err) {
		glog.Errorf("insert conversation err: %v", err)
		return nil, false, err
	}

	// Lost the race: the row exists now.
	c, err := s.getConversation(ctx, s.DB, getByPairKeySQL, key)
	if err != nil {
		return nil, false, err
	}
	if err := s.attachLastMessages(ctx, []*Conversation{c}); err != nil {
		return nil, false, err
	}
	return c, false, nil
}

func (s *chatStore) ListConversations(ctx context.Context, uid int64) ([]*Conversation, error) {
	rows, err := s.QueryContext(ctx, listConversationsSQL, uid)
	if err != nil {
		glog.Errorf("list conversations query err: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []*Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range out {
		if err := s.loadParticipants(ctx, s.DB, c); err != nil {
			return nil, err
		}
	}
	if err := s.attachLastMessages(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *chatStore) SetMuted(ctx context.Context, id, uid int64, muted bool) error {
	res, err := s.ExecContext(ctx, setMutedSQL, muted, id, uid)
	if err != nil {
		glog.Errorf("set muted exec err: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// No participant row: distinguish missing conversation from outsider.
		if _, err := s.getConversation(ctx, s.DB, getConversationSQL, id); err != nil {
			return err
		}
		// Participant exists with the same muted value, or uid is not one.
		var one int
		if err := s.QueryRowContext(ctx, isParticipantSQL, id, uid).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotParticipant
			}
			return err
		}
	}
	return nil
}

func (s *chatStore) DeleteConversation(ctx context.Context, id, uid int64) error {
	return s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		c, err := s.getConversation(ctx, tx, getConversationSQL, id)
		if err != nil {
			return err
		}
		if !c.HasParticipant(uid) {
			return ErrNotParticipant
		}

		for _, q := range []string{
			deleteReactionsSQL,
			deleteReadsSQL,
			deleteMediaSQL,
			deleteMessagesSQL,
			deleteParticipantsSQL,
			deleteConversationSQL,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				glog.Errorf("delete conversation exec err: %v", err)
				return err
			}
		}
		return nil
	})
}
