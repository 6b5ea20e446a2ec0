package session

import (
	"context"
	"sync"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"golang.org/x/sync/singleflight"
)

const DefaultCleanupInterval = time.Minute

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry keeps one Store per backend session and evicts idle ones.
type Registry struct {
	newStore func() *Store
	idleTTL  time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry
	sfg     singleflight.Group

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewRegistry(newStore func() *Store, idleTTL, cleanupInterval time.Duration) *Registry {
	r := &Registry{
		newStore:    newStore,
		idleTTL:     idleTTL,
		now:         time.Now,
		entries:     make(map[string]*entry),
		stopCleanup: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop(cleanupInterval)
	return r
}

// New returns a fresh, unregistered store for sign-in style flows.
func (r *Registry) New() *Store {
	return r.newStore()
}

func (r *Registry) Get(key string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.store, true
}

func (r *Registry) Put(key string, st *Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = &entry{store: st, lastSeen: r.now()}
}

func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Acquire returns the store for the token's session, restoring it from the
// backend on first sight. Concurrent first requests share one restore. A
// newer token for a known session replaces the stored one.
func (r *Registry) Acquire(ctx context.Context, claims *Claims, accessToken string) (*Store, error) {
	key := claims.Key()
	tokens := domain.Tokens{AccessToken: accessToken}
	if claims.ExpiresAt != nil {
		tokens.ExpiresAt = claims.ExpiresAt.Time
	}

	if st, ok := r.Get(key); ok {
		if !supersedes(st, accessToken, tokens.ExpiresAt) {
			return st, nil
		}
		_, err, _ := r.sfg.Do(key+"|"+accessToken, func() (interface{}, error) {
			if st.AccessToken() == accessToken {
				return nil, nil
			}
			return nil, st.Restore(context.WithoutCancel(ctx), accessToken, tokens)
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	}

	v, err, _ := r.sfg.Do(key, func() (interface{}, error) {
		if st, ok := r.Get(key); ok {
			return st, nil
		}
		st := r.newStore()
		if err := st.Restore(context.WithoutCancel(ctx), accessToken, tokens); err != nil {
			return nil, err
		}
		r.Put(key, st)
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// supersedes reports whether a presented token should replace the one a
// store holds. Requests still carrying an older token keep the newer one.
func supersedes(st *Store, accessToken string, expiresAt time.Time) bool {
	if st.AccessToken() == accessToken {
		return false
	}
	held := st.tokenExpiry()
	return held.IsZero() || !expiresAt.Before(held)
}

func (r *Registry) cleanupLoop(interval time.Duration) {
	defer r.wg.Done()

	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *Registry) evictIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.idleTTL)
	for key, e := range r.entries {
		if e.lastSeen.Before(cutoff) || e.store.State() == StateUnauthenticated {
			delete(r.entries, key)
		}
	}
}

// Close stops the background cleanup and waits for it to finish.
func (r *Registry) Close() error {
	close(r.stopCleanup)
	r.wg.Wait()
	return nil
}
