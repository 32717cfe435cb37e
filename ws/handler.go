package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"minichat/chat"
	"minichat/store"
)

type SessionError int

const (
	ReadError  SessionError = 1
	WriteError SessionError = 2
	PingError  SessionError = 3
	BadRequest SessionError = 4
	ServerStop SessionError = 5
	KickedOff  SessionError = 6
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 3 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	// Recommend configure nginx with `keep-alive_timeout` >= 65s.
	pingPeriod = 20 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 25 * time.Second

	// websocket max message size to read.
	readLimit = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The node sits behind the app gateway which enforces origins.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler manages an active connection to an end user.
// Every new websocket connection creates a new session.
type Handler struct {
	sync.Mutex

	hub *Hub

	session *Session
	conn    *websocket.Conn

	dataChan chan *SessionData

	// set once the client announced itself with user_online and the
	// session was registered in the presence registry.
	announced bool

	closing bool
}

// SessionData is the data structure for `dataChan`.
type SessionData struct {
	Error SessionError      `json:"error,omitempty"`
	Event *chat.ServerEvent `json:"event,omitempty"`
}

func (h *Handler) String() string {
	return h.session.String()
}

func (h *Handler) close(cause SessionError) {
	h.Lock()
	defer h.Unlock()
	if h.closing {
		return
	}

	h.closing = true

	h.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = h.conn.WriteMessage(websocket.CloseMessage, []byte{})
	h.conn.Close()

	close(h.dataChan)

	if cause != ServerStop {
		glog.V(5).Infof("session closed, cause: %d, %s", cause, h)
		h.hub.onHandlerClosed(h)
	}
}

func (h *Handler) appendDataChan(v *SessionData) {
	h.Lock()
	defer h.Unlock()
	if h.closing {
		return
	}
	// Non-blocking: a full chan means sendLoop has stalled or stopped, and
	// blocking here would hold the mutex against close().
	select {
	case h.dataChan <- v:
	default:
		glog.Errorf("appendDataChan(): data chan full, dropping, session: %s", h)
	}
}

func (h *Handler) isClosing() bool {
	h.Lock()
	defer h.Unlock()
	return h.closing
}

func (h *Handler) sendEvent(ev *chat.ServerEvent) {
	h.appendDataChan(&SessionData{Event: ev})
}

func sendServerEvent(conn *websocket.Conn, ev *chat.ServerEvent) error {
	out, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, out)
}

func (h *Handler) recvLoop() {
	defer func() { glog.V(5).Infof("recvLoop(): exited, session: %s", h.String()) }()

	h.conn.SetReadLimit(readLimit)
	h.conn.SetReadDeadline(time.Now().Add(pongWait))
	h.conn.SetPongHandler(func(s string) error {
		h.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for !h.isClosing() {
		msgType, msg, err := h.conn.ReadMessage()
		if err != nil {
			glog.V(5).Infof("recvLoop(): read error: %v", err)
			h.appendDataChan(&SessionData{Error: ReadError})
			return
		}

		glog.V(5).Infof("recvLoop(): incoming client event: %v", string(msg))

		if msgType != websocket.TextMessage {
			glog.Errorf("recvLoop(): unexpected message type: %d", msgType)
			h.sendEvent(chat.ErrorEvent("websocket only supports TextMessage"))
			h.appendDataChan(&SessionData{Error: BadRequest})
			return
		}

		req := ClientEvent{}
		if err := json.Unmarshal(msg, &req); err != nil {
			glog.Errorf("recvLoop(): event error: msg: %s, err: %v", string(msg), err)
			h.sendEvent(chat.ErrorEvent(fmt.Sprintf("unmarshal error: %v", err)))
			h.appendDataChan(&SessionData{Error: BadRequest})
			return
		}

		h.dispatch(context.Background(), &req)
	}
}

// dispatch runs one client event. A single connection executes one logical
// operation at a time; concurrency exists only across connections.
func (h *Handler) dispatch(ctx context.Context, req *ClientEvent) {
	switch {
	case req.UserOnline != nil:
		h.userOnline(ctx, req.UserOnline)
	case req.Join != nil:
		h.joinConversation(ctx, req.Join.ConversationId)
	case req.Leave != nil:
		h.hub.rooms.leave(req.Leave.ConversationId, h)
	case req.SendMessage != nil:
		h.sendMessage(ctx, req.SendMessage)
	case req.TypingStart != nil:
		h.hub.typingStart(req.TypingStart.ConversationId, h.session.Uid)
	case req.TypingStop != nil:
		h.hub.typingStop(req.TypingStop.ConversationId, h.session.Uid)
	case req.MarkRead != nil:
		h.markRead(ctx, req.MarkRead)
	default:
		glog.Errorf("dispatch(): unsupported event: %+v", req)
		h.sendEvent(chat.ErrorEvent("unsupported event"))
		h.appendDataChan(&SessionData{Error: BadRequest})
	}
}

// userOnline registers the session in the presence registry. The identity
// comes from the upgrade-time resolver; an explicit mismatching userId in
// the payload is rejected rather than trusted.
func (h *Handler) userOnline(ctx context.Context, req *UserOnlineReq) {
	if req.UserId != 0 && req.UserId != h.session.Uid {
		h.sendEvent(chat.ErrorEvent("user id does not match session identity"))
		return
	}

	h.Lock()
	already := h.announced
	h.announced = true
	h.Unlock()

	h.hub.registerPresence(h)
	if !already {
		h.hub.svc.PresenceChanged(ctx, h.session.Uid, true)
	}
}

func (h *Handler) joinConversation(ctx context.Context, conversationId int64) {
	if _, err := h.hub.svc.GetConversationFor(ctx, h.session.Uid, conversationId); err != nil {
		h.sendEvent(chat.ErrorEvent("conversation not found"))
		return
	}
	h.hub.rooms.join(conversationId, h)
	glog.V(5).Infof("session joined conversation %d: %s", conversationId, h)
}

func (h *Handler) sendMessage(ctx context.Context, req *SendMessageReq) {
	_, _, err := h.hub.svc.SendMessage(ctx, h.session.Uid, &chat.SendMessageInput{
		ConversationId: req.ConversationId,
		Content:        req.Content,
		Type:           req.MessageType,
		Media:          req.Media,
		RepliedToId:    req.RepliedTo,
	})
	if err != nil {
		glog.Errorf("sendMessage(): err: %v, session: %s", err, h)
		h.sendEvent(chat.ErrorEvent(clientReason(err)))
		return
	}
	messagesSentCounter.Inc()
}

func (h *Handler) markRead(ctx context.Context, req *MarkReadReq) {
	if _, err := h.hub.svc.MarkRead(ctx, h.session.Uid, req.ConversationId, req.MessageIds); err != nil {
		glog.Errorf("markRead(): err: %v, session: %s", err, h)
		h.sendEvent(chat.ErrorEvent(clientReason(err)))
	}
}

// clientReason maps an error to the string surfaced in a message_error
// event. Internal failures are masked.
func clientReason(err error) string {
	switch {
	case isValidation(err):
		return err.Error()
	case err == store.ErrNotFound:
		return "conversation not found"
	case err == store.ErrNotParticipant:
		return "not a participant of the conversation"
	}
	return "temporary failure, please retry"
}

func isValidation(err error) bool {
	_, ok := err.(*chat.ValidationError)
	return ok
}

func (h *Handler) sendLoop() {
	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		pingTicker.Stop()
		glog.V(5).Infof("sendLoop(): exited, session: %s", h.String())
	}()

	for {
		select {
		case v, ok := <-h.dataChan:
			if !ok { // chan was closed
				h.conn.Close()
				glog.V(5).Infof("sendLoop(): data chan closed, session: %s", h.String())
				return
			}

			if v.Error > 0 {
				h.close(v.Error)
				return
			} else if v.Event == nil {
				// should not happen.
				panic(fmt.Sprintf("sendLoop(), unknown data from dataChan: %#+v", v))
			}

			eventsPushedCounter.WithLabelValues(eventKind(v.Event)).Inc()
			if err := sendServerEvent(h.conn, v.Event); err != nil {
				glog.Errorf("sendLoop(), error write event. session: %s, err: %v", h.String(), err)
				h.appendDataChan(&SessionData{Error: WriteError})
				return
			}
		case <-pingTicker.C:
			h.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := h.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				glog.Errorf("sendLoop(), error write ping message. session: %s, err: %v", h, err)
				h.appendDataChan(&SessionData{Error: PingError})
				return
			}
		}
	}
}
