package game

import (
	"context"
	"sync"
	"time"

	"tinyuno/internal/logging"
)

// Hub keeps one lock and one set of watchers per game. Entries are created on
// demand and swept once idle.
type Hub struct {
	mu    sync.Mutex
	games map[int64]*room
	ttl   time.Duration
	now   func() time.Time
}

type room struct {
	lock     sync.RWMutex
	refs     int
	lastUsed time.Time
	watchers map[chan Event]struct{}
}

// NewHub creates a hub whose unused entries expire after ttl.
func NewHub(ttl time.Duration) *Hub {
	return &Hub{games: make(map[int64]*room), ttl: ttl, now: time.Now}
}

func (h *Hub) acquire(id int64) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.games[id]
	if !ok {
		r = &room{watchers: make(map[chan Event]struct{})}
		h.games[id] = r
	}
	r.refs++
	r.lastUsed = h.now()
	return r
}

func (h *Hub) release(r *room) {
	h.mu.Lock()
	r.refs--
	r.lastUsed = h.now()
	h.mu.Unlock()
}

// Lock takes the exclusive lock of a game and returns its release func.
func (h *Hub) Lock(id int64) func() {
	r := h.acquire(id)
	r.lock.Lock()
	return func() {
		r.lock.Unlock()
		h.release(r)
	}
}

// RLock takes the shared lock of a game and returns its release func.
func (h *Hub) RLock(id int64) func() {
	r := h.acquire(id)
	r.lock.RLock()
	return func() {
		r.lock.RUnlock()
		h.release(r)
	}
}

// Watch subscribes to the events of a game. The returned func unsubscribes.
func (h *Hub) Watch(id int64) (<-chan Event, func()) {
	r := h.acquire(id)
	ch := make(chan Event, 32)
	h.mu.Lock()
	r.watchers[ch] = struct{}{}
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(r.watchers, ch)
			h.mu.Unlock()
			h.release(r)
		})
	}
}

// Publish fans events out to the watchers of a game. Slow watchers miss
// events rather than block the publisher.
func (h *Hub) Publish(id int64, events ...Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.games[id]
	if !ok {
		return
	}
	for _, e := range events {
		for ch := range r.watchers {
			select {
			case ch <- e:
			default:
				logging.Warnf("game %d: watcher is lagging, dropped event %d", id, e.ID)
			}
		}
	}
}

// Watchers returns the number of subscribers of a game.
func (h *Hub) Watchers(id int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.games[id]; ok {
		return len(r.watchers)
	}
	return 0
}

// Len returns the number of tracked games.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.games)
}

// Sweep drops entries that nobody holds, waits on or watches and that have
// been idle for longer than the ttl. It returns the number removed.
func (h *Hub) Sweep() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	removed := 0
	for id, r := range h.games {
		if r.refs == 0 && now.Sub(r.lastUsed) > h.ttl {
			delete(h.games, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep()
		}
	}
}
