// Copyright 2025 The threadlocal Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thread

import (
	"sync"
	"testing"
	"time"

	"github.com/kolkov/threadlocal/internal/local/goid"
)

// TestCurrent_Stable verifies repeated calls return the same handle.
func TestCurrent_Stable(t *testing.T) {
	defer Release()

	h1 := Current()
	h2 := Current()

	if h1 != h2 {
		t.Errorf("Current() not stable: %p vs %p", h1, h2)
	}
	if h1.ID() != goid.ID() {
		t.Errorf("handle ID = %d, want goroutine ID %d", h1.ID(), goid.ID())
	}
}

// TestCurrent_DistinctPerGoroutine verifies goroutines get their own handles.
func TestCurrent_DistinctPerGoroutine(t *testing.T) {
	const numGoroutines = 50

	handleChan := make(chan *Handle, numGoroutines)

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer Release()
			handleChan <- Current()
		}()
	}
	wg.Wait()
	close(handleChan)

	seen := make(map[int64]bool, numGoroutines)
	for h := range handleChan {
		if seen[h.ID()] {
			t.Errorf("two handles share identity %d", h.ID())
		}
		seen[h.ID()] = true
	}
}

// TestRelease_DropsRoot verifies Release unroots the handle so a later
// Current() starts over with a fresh one.
func TestRelease_DropsRoot(t *testing.T) {
	h1 := Current()
	if !rooted(h1.ID()) {
		t.Fatal("handle not rooted after Current()")
	}

	Release()
	if rooted(h1.ID()) {
		t.Error("handle still rooted after Release()")
	}

	h2 := Current()
	defer Release()
	if h1 == h2 {
		t.Error("Current() after Release() returned the released handle")
	}
	if h1.ID() != h2.ID() {
		t.Errorf("identity changed across Release: %d vs %d", h1.ID(), h2.ID())
	}
}

// TestSweep_DropsDeadRoots verifies a sweep unroots handles of exited
// goroutines and leaves live ones alone.
func TestSweep_DropsDeadRoots(t *testing.T) {
	self := Current()
	defer Release()

	// Register from a goroutine that exits without calling Release.
	idChan := make(chan int64)
	done := make(chan struct{})
	go func() {
		idChan <- Current().ID()
		close(done)
	}()
	deadID := <-idChan
	<-done

	if !rooted(deadID) {
		t.Fatal("exited goroutine's handle should still be rooted before sweep")
	}

	// The goroutine may linger in the runtime's live set for a moment after
	// closing done, so sweep until it disappears.
	deadline := time.Now().Add(2 * time.Second)
	for rooted(deadID) && time.Now().Before(deadline) {
		Sweep()
		time.Sleep(time.Millisecond)
	}

	if rooted(deadID) {
		t.Error("sweep left a dead goroutine's handle rooted")
	}
	if !rooted(self.ID()) {
		t.Error("sweep dropped a live goroutine's handle")
	}
}

// TestSweep_Concurrent verifies sweeping while goroutines register does not
// panic or corrupt the registry.
func TestSweep_Concurrent(t *testing.T) {
	const numGoroutines = 100

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer Release()
			h := Current()
			if h.ID() != goid.ID() {
				t.Errorf("handle ID mismatch under concurrent sweep")
			}
		}()
	}
	for i := 0; i < 10; i++ {
		Sweep()
	}
	wg.Wait()
}
