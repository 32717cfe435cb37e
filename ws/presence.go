package ws

import "sync"

// Presence maps a user to its single live connection. Register overwrites:
// the last connection registered wins, a documented single-device
// limitation. Operations never fail.
type Presence struct {
	sync.RWMutex
	byUid map[int64]*Handler
}

func newPresence() *Presence {
	return &Presence{byUid: make(map[int64]*Handler)}
}

// register installs the handler as the user's connection and returns the
// handler it displaced, if any.
func (p *Presence) register(h *Handler) *Handler {
	p.Lock()
	defer p.Unlock()
	prev := p.byUid[h.session.Uid]
	if prev == h {
		return nil
	}
	p.byUid[h.session.Uid] = h
	return prev
}

// unregister removes the entry only if h is still the registered
// connection for its user. Returns false when a newer registration already
// replaced it.
func (p *Presence) unregister(h *Handler) bool {
	p.Lock()
	defer p.Unlock()
	if p.byUid[h.session.Uid] != h {
		return false
	}
	delete(p.byUid, h.session.Uid)
	return true
}

func (p *Presence) get(uid int64) *Handler {
	p.RLock()
	h := p.byUid[uid]
	p.RUnlock()
	return h
}

func (p *Presence) isOnline(uid int64) bool {
	return p.get(uid) != nil
}
