// Copyright 2025 The threadlocal Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deathwatch

import (
	"runtime"
	"testing"
	"time"

	"github.com/kolkov/threadlocal/internal/local/thread"
)

// registerFromGoroutine registers the spawned goroutine's handle with w and
// returns its identity and sentinel. The goroutine releases its registry
// root on exit, so the handle is collectable once the goroutine is gone.
func registerFromGoroutine(w *Watcher) (int64, *Sentinel) {
	type result struct {
		id int64
		s  *Sentinel
	}
	ch := make(chan result)
	go func() {
		defer thread.Release()
		h := thread.Current()
		ch <- result{h.ID(), w.Register(h, h.ID())}
	}()
	r := <-ch
	return r.id, r.s
}

// drainUntil polls the watcher, forcing collection cycles, until want
// appears in a drain or the deadline passes. Returns how many times want
// was drained.
func drainUntil(w *Watcher, want int64, deadline time.Duration) int {
	count := 0
	stop := time.Now().Add(deadline)
	for time.Now().Before(stop) {
		runtime.GC()
		for _, id := range w.DrainDead() {
			if id == want {
				count++
			}
		}
		if count > 0 {
			return count
		}
		time.Sleep(10 * time.Millisecond)
	}
	return count
}

// TestDrainDead_EmptyWatcher verifies draining a fresh watcher yields nothing.
func TestDrainDead_EmptyWatcher(t *testing.T) {
	w := New()
	if dead := w.DrainDead(); len(dead) != 0 {
		t.Errorf("DrainDead() on fresh watcher = %v, want empty", dead)
	}
}

// TestRegister_LiveHandleNotReported verifies a rooted handle never shows
// up in a drain, however hard the collector is pushed.
func TestRegister_LiveHandleNotReported(t *testing.T) {
	w := New()
	h := thread.Current()
	defer thread.Release()

	s := w.Register(h, h.ID())

	for i := 0; i < 5; i++ {
		runtime.GC()
	}

	if dead := w.DrainDead(); len(dead) != 0 {
		t.Errorf("live handle reported dead: %v", dead)
	}
	if !s.Alive() {
		t.Error("Sentinel.Alive() = false for a rooted handle")
	}
	if s.ID() != h.ID() {
		t.Errorf("Sentinel.ID() = %d, want %d", s.ID(), h.ID())
	}
	runtime.KeepAlive(h)
}

// TestDrainDead_ReportsCollectedHandle verifies the end-to-end path:
// goroutine exits, handle collected, identity drained exactly where expected.
func TestDrainDead_ReportsCollectedHandle(t *testing.T) {
	w := New()
	id, s := registerFromGoroutine(w)

	if got := drainUntil(w, id, 5*time.Second); got == 0 {
		t.Fatalf("identity %d never drained after goroutine death", id)
	}
	if s.Alive() {
		t.Error("Sentinel.Alive() = true after its handle was collected")
	}

	// Restartable: subsequent drains are empty, not an error.
	if dead := w.DrainDead(); len(dead) != 0 {
		t.Errorf("second drain = %v, want empty", dead)
	}
}

// TestRegister_DuplicateSentinels verifies the tolerated duplicate
// registration: both cleanups fire, the identity is simply queued twice.
func TestRegister_DuplicateSentinels(t *testing.T) {
	w := New()

	idCh := make(chan int64)
	go func() {
		defer thread.Release()
		h := thread.Current()
		w.Register(h, h.ID())
		w.Register(h, h.ID())
		idCh <- h.ID()
	}()
	id := <-idCh

	total := 0
	stop := time.Now().Add(5 * time.Second)
	for time.Now().Before(stop) && total < 2 {
		runtime.GC()
		for _, got := range w.DrainDead() {
			if got == id {
				total++
			}
		}
		time.Sleep(10 * time.Millisecond)
	}

	if total != 2 {
		t.Errorf("duplicate registration drained %d times, want 2", total)
	}
}
