package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"minichat/chat"
	"minichat/store"
)

func (s *server) listConversations(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uid(w, r)
	if !ok {
		return
	}

	convs, err := s.svc.ListConversations(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	if convs == nil {
		convs = []*store.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

func (s *server) createConversation(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uid(w, r)
	if !ok {
		return
	}

	var body struct {
		ParticipantId int64 `json:"participantId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	conv, err := s.svc.CreateOrFetchDirect(r.Context(), uid, body.ParticipantId)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *server) listMessages(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uid(w, r)
	if !ok {
		return
	}
	conversationId := pathId(r)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	msgs, err := s.svc.ListMessages(r.Context(), uid, conversationId, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []*store.Message{}
	}
	writeJSON(w, http.StatusOK, struct {
		Success        bool             `json:"success"`
		ConversationId int64            `json:"conversationId"`
		Messages       []*store.Message `json:"messages"`
	}{true, conversationId, msgs})
}

func (s *server) postMessage(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uid(w, r)
	if !ok {
		return
	}

	var body struct {
		ConversationId int64          `json:"conversationId"`
		ReceiverId     int64          `json:"receiverId"`
		Content        string         `json:"content"`
		MessageType    string         `json:"messageType"`
		Media          []*store.Media `json:"media"`
		RepliedTo      int64          `json:"repliedTo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	msg, conv, err := s.svc.SendMessage(r.Context(), uid, &chat.SendMessageInput{
		ConversationId: body.ConversationId,
		ReceiverId:     body.ReceiverId,
		Content:        body.Content,
		Type:           body.MessageType,
		Media:          body.Media,
		RepliedToId:    body.RepliedTo,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Success        bool           `json:"success"`
		ConversationId int64          `json:"conversationId"`
		Message        *store.Message `json:"message"`
		Pending        bool           `json:"pending"`
	}{true, conv.Id, msg, conv.Pending})
}

func (s *server) markRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uid(w, r)
	if !ok {
		return
	}

	var body struct {
		ConversationId int64   `json:"conversationId"`
		MessageIds     []int64 `json:"messageIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	marked, err := s.svc.MarkRead(r.Context(), uid, body.ConversationId, body.MessageIds)
	if err != nil {
		writeError(w, err)
		return
	}
	if marked == nil {
		marked = []int64{}
	}
	writeJSON(w, http.StatusOK, struct {
		Success    bool    `json:"success"`
		MessageIds []int64 `json:"messageIds"`
	}{true, marked})
}

func (s *server) addReaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uid(w, r)
	if !ok {
		return
	}

	var body struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	if err := s.svc.AddReaction(r.Context(), uid, pathId(r), body.Emoji); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
}

func (s *server) setMuted(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uid(w, r)
	if !ok {
		return
	}

	var body struct {
		Muted bool `json:"muted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	if err := s.svc.SetMuted(r.Context(), uid, pathId(r), body.Muted); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
}

func (s *server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uid(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteConversation(r.Context(), uid, pathId(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
}

func (s *server) search(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uid(w, r)
	if !ok {
		return
	}

	out, err := s.svc.Search(r.Context(), uid, r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func pathId(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}
