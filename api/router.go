// Package api exposes the stateless request/response surface of the chat
// subsystem. It shares all semantics (validation, pending gate, fanout)
// with the live websocket path through the same chat.Service.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/golang/glog"
	"github.com/gorilla/mux"

	"minichat/auth"
	"minichat/chat"
	"minichat/directory"
	"minichat/store"
)

type server struct {
	svc        *chat.Service
	authClient auth.Client
}

// NewRouter builds the REST router under /api/chat.
func NewRouter(svc *chat.Service, authClient auth.Client) *mux.Router {
	s := &server{svc: svc, authClient: authClient}

	r := mux.NewRouter()
	c := r.PathPrefix("/api/chat").Subrouter()
	c.HandleFunc("/conversations", s.listConversations).Methods(http.MethodGet)
	c.HandleFunc("/conversations", s.createConversation).Methods(http.MethodPost)
	c.HandleFunc("/conversations/{id:[0-9]+}/messages", s.listMessages).Methods(http.MethodGet)
	c.HandleFunc("/conversations/{id:[0-9]+}/mute", s.setMuted).Methods(http.MethodPut)
	c.HandleFunc("/conversations/{id:[0-9]+}", s.deleteConversation).Methods(http.MethodDelete)
	c.HandleFunc("/messages", s.postMessage).Methods(http.MethodPost)
	c.HandleFunc("/messages/read", s.markRead).Methods(http.MethodPost)
	c.HandleFunc("/messages/{id:[0-9]+}/reactions", s.addReaction).Methods(http.MethodPost)
	c.HandleFunc("/search", s.search).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Errorf("api: write response err: %v", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps the error taxonomy onto HTTP statuses. Conflict errors
// never reach here: the store absorbs them.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case isValidation(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case err == store.ErrNotFound || err == directory.ErrNotFound:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case err == store.ErrNotParticipant:
		writeJSON(w, http.StatusForbidden, errorBody{Error: "not a participant"})
	default:
		glog.Errorf("api: internal err: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func isValidation(err error) bool {
	_, ok := err.(*chat.ValidationError)
	return ok
}

// uid resolves the caller's identity, replying 401 itself on failure.
func (s *server) uid(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, err := s.authClient.Auth(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return 0, false
	}
	return uid, true
}
