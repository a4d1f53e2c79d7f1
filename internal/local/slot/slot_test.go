// Copyright 2025 The threadlocal Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package slot

import (
	"sync"
	"testing"

	"github.com/kolkov/threadlocal/internal/local/goid"
)

// TestCell_StoreLoadClear verifies the single-goroutine lifecycle.
func TestCell_StoreLoadClear(t *testing.T) {
	c := New[int]()

	if _, ok := c.Load(); ok {
		t.Error("Load() on empty cell reported a value")
	}

	c.Store(42)
	if v, ok := c.Load(); !ok || v != 42 {
		t.Errorf("Load() = %d, %v; want 42, true", v, ok)
	}

	c.Clear()
	if _, ok := c.Load(); ok {
		t.Error("Load() after Clear() reported a value")
	}
}

// TestCell_Isolation verifies goroutines never see each other's values.
func TestCell_Isolation(t *testing.T) {
	const numGoroutines = 50

	c := New[int]()

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(want int) {
			defer wg.Done()

			c.Store(want)
			if v, ok := c.Load(); !ok || v != want {
				t.Errorf("goroutine read %d, %v; want its own %d", v, ok, want)
			}
		}(i)
	}
	wg.Wait()
}

// TestWipeCurrent_ClearsAllCells verifies the pool's wipe capability hits
// every cell for the calling goroutine.
func TestWipeCurrent_ClearsAllCells(t *testing.T) {
	a := New[string]()
	b := New[int]()

	a.Store("x")
	b.Store(7)

	WipeCurrent()

	if _, ok := a.Load(); ok {
		t.Error("cell a survived WipeCurrent()")
	}
	if _, ok := b.Load(); ok {
		t.Error("cell b survived WipeCurrent()")
	}
}

// TestEvict_RemovesDeadCompartment verifies the death-eviction path: a
// compartment left behind by an exited goroutine is removed by identity.
func TestEvict_RemovesDeadCompartment(t *testing.T) {
	c := New[int]()

	ids := make(chan int64, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Store(42)
		ids <- goid.ID()
	}()
	wg.Wait()
	id := <-ids

	if _, ok := c.values.Load(id); !ok {
		t.Fatal("dead goroutine's compartment missing before eviction")
	}

	c.Evict(id)

	if v, ok := c.values.Load(id); ok {
		t.Errorf("dead goroutine %d still holds slot entry %v after Evict", id, v)
	}
}

// TestWipeCurrent_OtherGoroutinesUntouched verifies the wipe is scoped to
// the calling goroutine only.
func TestWipeCurrent_OtherGoroutinesUntouched(t *testing.T) {
	c := New[string]()

	stored := make(chan struct{})
	release := make(chan struct{})
	checked := make(chan struct{})

	go func() {
		c.Store("other")
		close(stored)
		<-release
		if v, ok := c.Load(); !ok || v != "other" {
			t.Errorf("other goroutine's value = %q, %v after foreign wipe; want \"other\"", v, ok)
		}
		close(checked)
	}()

	<-stored
	c.Store("mine")
	WipeCurrent()
	if _, ok := c.Load(); ok {
		t.Error("own value survived WipeCurrent()")
	}

	close(release)
	<-checked
}
