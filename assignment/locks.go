package assignment

import (
	"context"
	"sync"
)

// periodLocks serializes assignment decisions per period inside this
// process. Entries are reference counted so idle periods do not accumulate.
type periodLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	token chan struct{}
	refs  int
}

func newPeriodLocks() *periodLocks {
	return &periodLocks{entries: make(map[string]*lockEntry)}
}

// acquire blocks until the lock for key is held or ctx is done. The returned
// release function is idempotent and must be called on every exit path.
func (l *periodLocks) acquire(ctx context.Context, key string) (release func(), err error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{token: make(chan struct{}, 1)}
		e.token <- struct{}{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case <-e.token:
		var once sync.Once
		return func() {
			once.Do(func() {
				e.token <- struct{}{}
				l.put(key, e)
			})
		}, nil
	case <-ctx.Done():
		l.put(key, e)
		return nil, ctx.Err()
	}
}

func (l *periodLocks) put(key string, e *lockEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}
