package content

import "sync"

// postLocks hands out one mutex per post id so aggregate maintenance for a
// post is serialized without serializing unrelated posts. Entries are
// reference counted and removed once the last holder releases, keeping the
// table bounded by the number of posts under concurrent mutation.
type postLocks struct {
	mu    sync.Mutex
	locks map[int64]*postLock
}

type postLock struct {
	mu   sync.Mutex
	refs int
}

func newPostLocks() *postLocks {
	return &postLocks{locks: make(map[int64]*postLock)}
}

// Lock acquires the mutex for postID and returns its release function.
func (l *postLocks) Lock(postID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[postID]
	if !ok {
		entry = &postLock{}
		l.locks[postID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, postID)
		}
		l.mu.Unlock()
	}
}
