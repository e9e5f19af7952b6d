package lockreg

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"courtbook/pkg/model"
)

// MemoryStore keeps locks in a go-cache instance whose janitor sweeps expired
// entries on a fixed interval. Reads additionally check expiry against the
// store's clock so stale entries never leak out between sweeps.
type MemoryStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
	ttl   time.Duration

	now func() time.Time

	// onExpired fires asynchronously when a lock ages out without being
	// released, never under the store mutex.
	onExpired func(model.SlotLock)
}

func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		cache: gocache.New(ttl, sweepInterval),
		ttl:   ttl,
		now:   time.Now,
	}
	s.cache.OnEvicted(func(_ string, value interface{}) {
		lock, ok := value.(*model.SlotLock)
		if !ok {
			return
		}
		// Explicit releases delete entries before expiry; only aged-out
		// entries reach the callback as expired. Lazy expiry evicts while
		// s.mu is held, so the callback runs on its own goroutine where it
		// is free to publish or read the store without stalling callers.
		if s.onExpired != nil && lock.IsExpired(s.now()) {
			go s.onExpired(*lock)
		}
	})
	return s
}

// OnExpired registers a callback invoked for each lock the sweep removes.
// Must be called before the store is shared across goroutines.
func (s *MemoryStore) OnExpired(fn func(model.SlotLock)) {
	s.onExpired = fn
}

func (s *MemoryStore) Acquire(_ context.Context, key model.SlotKey, ownerID, userID string) (*model.SlotLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if existing := s.live(key, now); existing != nil {
		if existing.OwnerID != ownerID {
			return nil, ErrSlotHeld
		}
		// Same owner re-locking refreshes the TTL.
		existing.ExpiresAt = now.Add(s.ttl)
		s.cache.Set(key.String(), existing, s.ttl)
		return existing, nil
	}

	lock := &model.SlotLock{
		Key:       key,
		OwnerID:   ownerID,
		UserID:    userID,
		LockedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.cache.Set(key.String(), lock, s.ttl)
	return lock, nil
}

func (s *MemoryStore) Release(_ context.Context, key model.SlotKey, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := s.live(key, s.now())
	if lock == nil || lock.OwnerID != ownerID {
		return false, nil
	}

	s.cache.Delete(key.String())
	return true, nil
}

func (s *MemoryStore) ReleaseAll(_ context.Context, ownerID string) ([]model.SlotLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var released []model.SlotLock

	for k, item := range s.cache.Items() {
		lock, ok := item.Object.(*model.SlotLock)
		if !ok || lock.OwnerID != ownerID || lock.IsExpired(now) {
			continue
		}
		s.cache.Delete(k)
		released = append(released, *lock)
	}

	return released, nil
}

func (s *MemoryStore) Get(_ context.Context, key model.SlotKey) (*model.SlotLock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := s.live(key, s.now())
	if lock == nil {
		return nil, false
	}
	copied := *lock
	return &copied, true
}

func (s *MemoryStore) ListActive(_ context.Context, courtID, date string) ([]model.SlotLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var locks []model.SlotLock

	for _, item := range s.cache.Items() {
		lock, ok := item.Object.(*model.SlotLock)
		if !ok || lock.IsExpired(now) {
			continue
		}
		if lock.Key.CourtID == courtID && lock.Key.Date == date {
			locks = append(locks, *lock)
		}
	}

	return locks, nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for _, item := range s.cache.Items() {
		lock, ok := item.Object.(*model.SlotLock)
		if ok && !lock.IsExpired(now) {
			count++
		}
	}
	return count
}

// live returns the lock for key when present and unexpired. Expired entries
// the janitor has not reached yet are dropped on sight.
func (s *MemoryStore) live(key model.SlotKey, now time.Time) *model.SlotLock {
	value, found := s.cache.Get(key.String())
	if !found {
		return nil
	}
	lock, ok := value.(*model.SlotLock)
	if !ok {
		return nil
	}
	if lock.IsExpired(now) {
		s.cache.Delete(key.String())
		return nil
	}
	return lock
}
