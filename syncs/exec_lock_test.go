package syncs

import (
	"sync"
	"testing"
	"time"
)

func TestExecLockReentrant(t *testing.T) {
	l := NewExecLock()
	l.Acquire()
	l.Acquire()
	if !l.Held() {
		t.Fatal("should be held")
	}
	l.Release()
	if !l.Held() {
		t.Fatal("should still be held")
	}
	l.Release()
	if l.Held() {
		t.Fatal("should be released")
	}
}

func TestExecLockExclusive(t *testing.T) {
	l := NewExecLock()
	var wg sync.WaitGroup
	active := 0
	maxActive := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = l.Do(func() error {
					active++
					if active > maxActive {
						maxActive = active
					}
					// nested acquisition must not deadlock
					_ = l.Do(func() error {
						return nil
					})
					active--
					return nil
				})
			}
		}()
	}
	wg.Wait()
	if maxActive != 1 {
		t.Fatalf("got %d", maxActive)
	}
}

func TestExecLockReleaseOnPanic(t *testing.T) {
	l := NewExecLock()
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("should panic")
			}
		}()
		_ = l.Do(func() error {
			panic("boom")
		})
	}()
	if l.Held() {
		t.Fatal("should be released")
	}
	done := make(chan bool)
	go func() {
		l.Acquire()
		l.Release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock leaked")
	}
}

func TestExecLockUnlocked(t *testing.T) {
	l := NewExecLock()
	l.Acquire()
	l.Acquire()
	entered := make(chan bool)
	l.Unlocked(func() {
		go func() {
			l.Acquire()
			l.Release()
			close(entered)
		}()
		select {
		case <-entered:
		case <-time.After(time.Second):
			t.Error("other goroutine blocked while unlocked")
		}
	})
	if !l.Held() {
		t.Fatal("should be held again")
	}
	l.Release()
	if !l.Held() {
		t.Fatal("depth should be restored")
	}
	l.Release()
	if l.Held() {
		t.Fatal("should be released")
	}
}
