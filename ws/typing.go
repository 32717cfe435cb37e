package ws

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

const (
	// A typing entry not refreshed within typingTTL is expired by the
	// sweeper, so indicators cannot survive an abrupt disconnect.
	typingTTL      = 6 * time.Second
	typingSweepGap = 2 * time.Second
)

type typingKey struct {
	conversationId int64
	uid            int64
}

// TypingTracker holds the ephemeral per-conversation set of currently
// typing users.
type TypingTracker struct {
	sync.Mutex
	ttl     time.Duration
	entries map[typingKey]time.Time
}

func newTypingTracker(ttl time.Duration) *TypingTracker {
	return &TypingTracker{
		ttl:     ttl,
		entries: make(map[typingKey]time.Time),
	}
}

// start adds or refreshes the entry, reporting whether it is new.
func (t *TypingTracker) start(conversationId, uid int64) bool {
	k := typingKey{conversationId, uid}
	t.Lock()
	defer t.Unlock()
	_, exists := t.entries[k]
	t.entries[k] = time.Now()
	return !exists
}

// stop removes the entry, reporting whether it was present.
func (t *TypingTracker) stop(conversationId, uid int64) bool {
	k := typingKey{conversationId, uid}
	t.Lock()
	defer t.Unlock()
	if _, exists := t.entries[k]; !exists {
		return false
	}
	delete(t.entries, k)
	return true
}

// sweep removes and returns entries older than the TTL.
func (t *TypingTracker) sweep(now time.Time) []typingKey {
	t.Lock()
	defer t.Unlock()
	var expired []typingKey
	for k, started := range t.entries {
		if now.Sub(started) >= t.ttl {
			delete(t.entries, k)
			expired = append(expired, k)
		}
	}
	return expired
}

// run expires stale entries until the context ends, reporting each to
// `expired` so the hub can broadcast the stop.
func (t *TypingTracker) run(ctx context.Context, expired func(conversationId, uid int64)) {
	ticker := time.NewTicker(typingSweepGap)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, k := range t.sweep(now) {
				glog.V(5).Infof("typing entry expired, conversation: %d, uid: %d", k.conversationId, k.uid)
				expired(k.conversationId, k.uid)
			}
		}
	}
}
