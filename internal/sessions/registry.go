package sessions

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/cache"
	"storefront/internal/search"
)

// Registry keeps one search store per visitor. A store lives as long as its
// visitor keeps coming back within the idle window.
type Registry struct {
	mu     sync.Mutex
	stores *cache.TTL[string, *search.Store]
	idle   time.Duration
	newFn  func() *search.Store
}

func NewRegistry(clock cache.Clock, idle time.Duration, newStore func() *search.Store) *Registry {
	return &Registry{stores: cache.NewTTL[string, *search.Store](clock), idle: idle, newFn: newStore}
}

// Get returns the store for sid and the id to keep using. Unknown, expired
// or malformed ids get a fresh store under a new id.
func (r *Registry) Get(sid string) (*search.Store, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// the id is kept as a map key, so it must not alias caller memory
	sid = strings.Clone(sid)
	if _, err := uuid.Parse(sid); err == nil {
		if st, ok := r.stores.Get(sid); ok {
			r.stores.Set(sid, st, r.idle)
			return st, sid
		}
	}
	sid = uuid.NewString()
	st := r.newFn()
	r.stores.Set(sid, st, r.idle)
	return st, sid
}

// Drop forgets sid and stops its pending work.
func (r *Registry) Drop(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.stores.Get(sid); ok {
		st.Close()
	}
	r.stores.Delete(sid)
}

// Sweep closes and forgets every idle store. It returns how many went.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	gone := r.stores.Sweep()
	for _, st := range gone {
		st.Close()
	}
	return len(gone)
}

func (r *Registry) Len() int { return r.stores.Len() }
