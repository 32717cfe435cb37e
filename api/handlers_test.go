package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minichat/auth"
	"minichat/chat"
	"minichat/directory"
	"minichat/store"
	store_mock "minichat/store/mock"
)

type stubDirectory struct {
	users map[int64]*directory.User
}

func (d *stubDirectory) Get(ctx context.Context, id int64) (*directory.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, directory.ErrNotFound
}

func (d *stubDirectory) GetMany(ctx context.Context, ids []int64) (map[int64]*directory.User, error) {
	out := make(map[int64]*directory.User)
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (d *stubDirectory) Search(ctx context.Context, query string, excludeUid int64, limit int) ([]*directory.User, error) {
	return nil, nil
}

func (d *stubDirectory) SetOnline(ctx context.Context, id int64, online bool) error {
	return nil
}

func newTestRouter(t *testing.T) (*mux.Router, *store_mock.MockIChatStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := store_mock.NewMockIChatStore(ctrl)
	dir := &stubDirectory{users: map[int64]*directory.User{
		1: {Id: 1, Username: "alice"},
		2: {Id: 2, Username: "bob"},
	}}
	svc := chat.NewService(st, dir)
	return NewRouter(svc, &auth.HeaderClient{}), st
}

func doRequest(r *mux.Router, method, path string, uid int64, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if uid > 0 {
		req.Header.Set("X-Uid", strconv.FormatInt(uid, 10))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/chat/conversations", 0, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateConversation(t *testing.T) {
	r, st := newTestRouter(t)

	// Unknown peer.
	w := doRequest(r, http.MethodPost, "/api/chat/conversations", 1, `{"participantId": 42}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Self peer.
	w = doRequest(r, http.MethodPost, "/api/chat/conversations", 1, `{"participantId": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	conv := &store.Conversation{Id: 10, ParticipantIds: []int64{1, 2}}
	st.EXPECT().FindOrCreateDirect(gomock.Any(), int64(1), int64(2)).Return(conv, true, nil)

	w = doRequest(r, http.MethodPost, "/api/chat/conversations", 1, `{"participantId": 2}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got store.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(10), got.Id)
	assert.False(t, got.Pending)
}

func TestPostMessage(t *testing.T) {
	r, st := newTestRouter(t)

	// Validation failures stay client-side.
	w := doRequest(r, http.MethodPost, "/api/chat/messages", 1, `{"conversationId": 10, "content": "  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	conv := &store.Conversation{Id: 10, Pending: true, FirstSenderId: 1, ParticipantIds: []int64{1, 2}}
	msg := &store.Message{Id: 100, ConversationId: 10, SenderId: 1, Content: "hi", Type: store.TypeText}

	st.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).Return(msg, nil)
	st.EXPECT().GetConversation(gomock.Any(), int64(10)).Return(conv, nil)

	w = doRequest(r, http.MethodPost, "/api/chat/messages", 1, `{"conversationId": 10, "content": "hi"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var got struct {
		Success        bool           `json:"success"`
		ConversationId int64          `json:"conversationId"`
		Message        *store.Message `json:"message"`
		Pending        bool           `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, int64(10), got.ConversationId)
	assert.True(t, got.Pending)
	require.NotNil(t, got.Message)
	assert.Equal(t, int64(100), got.Message.Id)
}

func TestListMessagesForbidden(t *testing.T) {
	r, st := newTestRouter(t)

	conv := &store.Conversation{Id: 10, ParticipantIds: []int64{2, 3}}
	st.EXPECT().GetConversation(gomock.Any(), int64(10)).Return(conv, nil)

	w := doRequest(r, http.MethodGet, "/api/chat/conversations/10/messages", 1, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMarkRead(t *testing.T) {
	r, st := newTestRouter(t)

	st.EXPECT().MarkRead(gomock.Any(), int64(10), int64(2), []int64{100, 101}).Return([]int64{100}, nil)

	w := doRequest(r, http.MethodPost, "/api/chat/messages/read", 2,
		`{"conversationId": 10, "messageIds": [100, 101]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Success    bool    `json:"success"`
		MessageIds []int64 `json:"messageIds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, []int64{100}, got.MessageIds)
}

func TestSetMutedStatuses(t *testing.T) {
	r, st := newTestRouter(t)

	st.EXPECT().SetMuted(gomock.Any(), int64(10), int64(1), true).Return(store.ErrNotFound)
	w := doRequest(r, http.MethodPut, "/api/chat/conversations/10/mute", 1, `{"muted": true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	st.EXPECT().SetMuted(gomock.Any(), int64(10), int64(1), true).Return(nil)
	w = doRequest(r, http.MethodPut, "/api/chat/conversations/10/mute", 1, `{"muted": true}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteConversation(t *testing.T) {
	r, st := newTestRouter(t)

	st.EXPECT().DeleteConversation(gomock.Any(), int64(10), int64(3)).Return(store.ErrNotParticipant)
	w := doRequest(r, http.MethodDelete, "/api/chat/conversations/10", 3, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	st.EXPECT().DeleteConversation(gomock.Any(), int64(10), int64(1)).Return(nil)
	w = doRequest(r, http.MethodDelete, "/api/chat/conversations/10", 1, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
