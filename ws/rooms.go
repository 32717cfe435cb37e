package ws

import "sync"

// Rooms tracks which connections have joined which conversation channel.
// Joining a room opts the connection into synchronous message fanout for
// that conversation.
type Rooms struct {
	sync.RWMutex
	byConv    map[int64]map[*Handler]bool
	byHandler map[*Handler]map[int64]bool
}

func newRooms() *Rooms {
	return &Rooms{
		byConv:    make(map[int64]map[*Handler]bool),
		byHandler: make(map[*Handler]map[int64]bool),
	}
}

func (r *Rooms) join(conversationId int64, h *Handler) {
	r.Lock()
	defer r.Unlock()
	if r.byConv[conversationId] == nil {
		r.byConv[conversationId] = make(map[*Handler]bool)
	}
	r.byConv[conversationId][h] = true
	if r.byHandler[h] == nil {
		r.byHandler[h] = make(map[int64]bool)
	}
	r.byHandler[h][conversationId] = true
}

func (r *Rooms) leave(conversationId int64, h *Handler) {
	r.Lock()
	defer r.Unlock()
	r.drop(conversationId, h)
}

// leaveAll removes the handler from every room and returns the rooms it
// was in.
func (r *Rooms) leaveAll(h *Handler) []int64 {
	r.Lock()
	defer r.Unlock()
	var out []int64
	for conversationId := range r.byHandler[h] {
		out = append(out, conversationId)
		r.drop(conversationId, h)
	}
	return out
}

// drop requires the write lock.
func (r *Rooms) drop(conversationId int64, h *Handler) {
	if set := r.byConv[conversationId]; set != nil {
		delete(set, h)
		if len(set) == 0 {
			delete(r.byConv, conversationId)
		}
	}
	if set := r.byHandler[h]; set != nil {
		delete(set, conversationId)
		if len(set) == 0 {
			delete(r.byHandler, h)
		}
	}
}

func (r *Rooms) handlers(conversationId int64) []*Handler {
	r.RLock()
	defer r.RUnlock()
	out := make([]*Handler, 0, len(r.byConv[conversationId]))
	for h := range r.byConv[conversationId] {
		out = append(out, h)
	}
	return out
}

func (r *Rooms) contains(conversationId, uid int64) bool {
	r.RLock()
	defer r.RUnlock()
	for h := range r.byConv[conversationId] {
		if h.session.Uid == uid {
			return true
		}
	}
	return false
}
