package syncs

import (
	"sync/atomic"

	"github.com/petermattis/goid"
)

// ExecLock is a reentrant lock owned by at most one goroutine at a time.
// A goroutine holding the lock may acquire it again; it is released when
// every Acquire has been matched by a Release.
type ExecLock struct {
	sem       Semaphore
	owner     atomic.Int64
	depth     int
	contended atomic.Int64
}

func NewExecLock() *ExecLock {
	return &ExecLock{
		sem: NewSemaphore(1),
	}
}

func (l *ExecLock) Acquire() {
	id := goid.Get()
	if l.owner.Load() == id {
		l.depth++
		return
	}
	if !l.sem.TryAcquire() {
		l.contended.Add(1)
		l.sem.Acquire()
	}
	l.owner.Store(id)
	l.depth = 1
}

func (l *ExecLock) Release() {
	if l.owner.Load() != goid.Get() {
		panic("syncs: exec lock released by a goroutine that does not hold it")
	}
	l.depth--
	if l.depth > 0 {
		return
	}
	l.owner.Store(0)
	l.sem.Release()
}

// Held reports whether the calling goroutine holds the lock.
func (l *ExecLock) Held() bool {
	return l.owner.Load() == goid.Get()
}

// Contended returns how many acquisitions had to wait for another goroutine.
func (l *ExecLock) Contended() int64 {
	return l.contended.Load()
}

// Do runs fn with the lock held. The lock is released on every exit path,
// including panics.
func (l *ExecLock) Do(fn func() error) error {
	l.Acquire()
	defer l.Release()
	return fn()
}

// Unlocked fully releases a lock held by the calling goroutine for the
// duration of fn and restores the previous depth afterwards. If the lock is
// not held, fn simply runs.
func (l *ExecLock) Unlocked(fn func()) {
	id := goid.Get()
	if l.owner.Load() != id {
		fn()
		return
	}
	depth := l.depth
	l.depth = 0
	l.owner.Store(0)
	l.sem.Release()
	defer func() {
		if !l.sem.TryAcquire() {
			l.contended.Add(1)
			l.sem.Acquire()
		}
		l.owner.Store(id)
		l.depth = depth
	}()
	fn()
}
