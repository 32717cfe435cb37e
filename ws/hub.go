package ws

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/pborman/uuid"

	"minichat/auth"
	"minichat/chat"
)

// Hub upgrades connections, manages sessions and implements the live
// delivery surface (`chat.Pusher`) on top of the presence registry and the
// conversation rooms.
type Hub struct {
	authClient auth.Client
	svc        *chat.Service

	hstore   *HandlerStore
	presence *Presence
	rooms    *Rooms
	typing   *TypingTracker
}

// NewHub creates a `Hub` and wires it into the service as its pusher.
func NewHub(authClient auth.Client, svc *chat.Service) *Hub {
	h := &Hub{
		authClient: authClient,
		svc:        svc,
		hstore: &HandlerStore{
			handlers: make(map[string]*Handler),
		},
		presence: newPresence(),
		rooms:    newRooms(),
		typing:   newTypingTracker(typingTTL),
	}
	svc.SetPusher(h)
	return h
}

// Run sweeps expired typing entries until the context ends, then closes
// every live connection.
func (h *Hub) Run(ctx context.Context, stopDoneNotifyC chan<- struct{}) {
	go h.typing.run(ctx, func(conversationId, uid int64) {
		h.PushRoom(conversationId, uid, &chat.ServerEvent{
			UserTyping: &chat.UserTyping{UserId: uid, IsTyping: false},
		})
	})

	<-ctx.Done()
	glog.Infof("close connections ...")
	h.hstore.close()
	glog.Infof("close connections done")
	stopDoneNotifyC <- struct{}{}
}

// ServeHTTP handles websocket requests from the peer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid, err := h.authClient.Auth(r)
	if err != nil {
		glog.Errorf("ServeHTTP(): authenticate error: %v", err)
		http.Error(w, "Authenticate error", http.StatusForbidden)
		return
	}

	sess := &Session{
		Uid:        uid,
		Sid:        strings.ReplaceAll(uuid.New(), "-", ""),
		CreateTime: time.Now().Unix(),
		Ip:         getRemoteIP(r),
	}

	// If the upgrade fails, then Upgrade replies to the client with an HTTP error response.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Errorf("ServeHTTP(): upgrader.Upgrade error, uid: %d, err: %s", uid, err)
		return
	}

	handler := &Handler{
		dataChan: make(chan *SessionData, 16),
		session:  sess,
		conn:     conn,
		hub:      h,
	}

	conn.SetCloseHandler(func(code int, text string) error {
		glog.V(5).Infof("session closed by peer, session: %s, code: %d, text: %s", handler, code, text)
		handler.close(ReadError)
		return nil
	})

	h.hstore.add(handler)

	go handler.recvLoop()
	go handler.sendLoop()
}

// registerPresence installs the handler as its user's live connection,
// kicking the connection it displaces. Last registration wins.
func (h *Hub) registerPresence(handler *Handler) {
	if prev := h.presence.register(handler); prev != nil {
		glog.V(5).Infof("presence: displacing session %s", prev)
		prev.close(KickedOff)
	}
}

// onHandlerClosed tears down all live state of a dead connection: rooms,
// typing entries, presence. In-flight message writes are unaffected.
func (h *Hub) onHandlerClosed(handler *Handler) {
	if !h.hstore.del(handler.session.Sid) {
		return
	}

	uid := handler.session.Uid
	for _, conversationId := range h.rooms.leaveAll(handler) {
		if h.typing.stop(conversationId, uid) {
			h.PushRoom(conversationId, uid, &chat.ServerEvent{
				UserTyping: &chat.UserTyping{UserId: uid, IsTyping: false},
			})
		}
	}

	if h.presence.unregister(handler) && handler.announced {
		h.svc.PresenceChanged(context.Background(), uid, false)
	}
}

func (h *Hub) typingStart(conversationId, uid int64) {
	h.typing.start(conversationId, uid)
	h.PushRoom(conversationId, uid, &chat.ServerEvent{
		UserTyping: &chat.UserTyping{UserId: uid, IsTyping: true},
	})
}

func (h *Hub) typingStop(conversationId, uid int64) {
	h.typing.stop(conversationId, uid)
	h.PushRoom(conversationId, uid, &chat.ServerEvent{
		UserTyping: &chat.UserTyping{UserId: uid, IsTyping: false},
	})
}

// PushRoom implements `chat.Pusher`. The typing and read events exclude
// the acting user; message fanout excludes nobody.
func (h *Hub) PushRoom(conversationId, exceptUid int64, ev *chat.ServerEvent) {
	for _, handler := range h.rooms.handlers(conversationId) {
		if exceptUid != 0 && handler.session.Uid == exceptUid {
			continue
		}
		handler.sendEvent(ev)
	}
}

// PushUser implements `chat.Pusher`.
func (h *Hub) PushUser(uid int64, ev *chat.ServerEvent) {
	if handler := h.presence.get(uid); handler != nil {
		handler.sendEvent(ev)
	}
}

// IsOnline implements `chat.Pusher`.
func (h *Hub) IsOnline(uid int64) bool {
	return h.presence.isOnline(uid)
}

// InRoom implements `chat.Pusher`.
func (h *Hub) InRoom(conversationId, uid int64) bool {
	return h.rooms.contains(conversationId, uid)
}

func getRemoteIP(r *http.Request) string {
	ip := r.Header.Get("X-REAL-IP")
	if ip == "" {
		if ips := r.Header.Get("X-FORWARDED-FOR"); ips != "" {
			slice := strings.Split(ips, ",")
			for _, x := range slice {
				if x != "" {
					ip = x
				}
			}
		}
	}
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	}

	return ip
}
