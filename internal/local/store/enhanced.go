// Copyright 2025 The threadlocal Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"sync"

	"github.com/apex/log"

	"github.com/kolkov/threadlocal/internal/local/deathwatch"
	"github.com/kolkov/threadlocal/internal/local/goid"
	"github.com/kolkov/threadlocal/internal/local/slot"
	"github.com/kolkov/threadlocal/internal/local/thread"
)

// Enhanced is the full variant of the fallback store.
//
// On top of Basic it keeps an active-thread index so each live identity
// gets at most one sentinel however often it calls Set, runs a disposal
// callback with the evicted value when a dead goroutine's entry is
// reclaimed, and exposes Size for observation.
//
// Safe for concurrent use by any number of goroutines.
type Enhanced[T any] struct {
	slot     *slot.Cell[T]
	fallback sync.Map // int64 (ThreadIdentity) -> T
	factory  func() T
	closer   func(T)
	watcher  *deathwatch.Watcher

	// active maps identity to its registered sentinel, purely to avoid
	// issuing more than one sentinel per live goroutine. Entries leave
	// whenever the corresponding death is processed.
	active sync.Map // int64 -> *deathwatch.Sentinel
}

// NewEnhanced creates an Enhanced store.
//
// factory runs on the first Get of any goroutine without a stored value
// and must not return nil. closer runs with a goroutine's last value when
// its entry is evicted after death; nil means no-op.
func NewEnhanced[T any](factory func() T, closer func(T)) *Enhanced[T] {
	if closer == nil {
		closer = func(T) {}
	}
	return &Enhanced[T]{
		slot:    slot.New[T](),
		factory: factory,
		closer:  closer,
		watcher: deathwatch.New(),
	}
}

// Get returns the calling goroutine's value, manufacturing it on first
// use. Resolution order matches Basic.Get: slot, then fallback map with
// slot re-seed, then factory (nil result fails with ErrNilValue, no
// partial write).
func (s *Enhanced[T]) Get() (T, error) {
	if v, ok := s.slot.Load(); ok {
		return v, nil
	}

	s.evictDead()

	if v, ok := s.fallback.Load(goid.ID()); ok {
		value := v.(T)
		s.slot.Store(value)
		return value, nil
	}

	value := s.factory()
	if isNil(value) {
		var zero T
		return zero, ErrNilValue
	}
	s.Set(value)
	return value, nil
}

// Set stores value for the calling goroutine in both the fallback map and
// the native slot.
func (s *Enhanced[T]) Set(value T) {
	s.setFallback(value, thread.Current())
	s.slot.Store(value)
}

// setFallback writes the shadow entry and, for a first-seen identity with
// no live sentinel, drains the watcher and registers one.
//
// The active-index check and the insert are not one atomic step; two
// racing first-time Sets can still double-register. Both sentinels stay
// correct and one is redundant. Basic tolerates the same race, and no
// lock is taken for it here either.
func (s *Enhanced[T]) setFallback(value T, h *thread.Handle) {
	id := h.ID()
	if _, loaded := s.fallback.Swap(id, value); loaded {
		return
	}
	if _, ok := s.active.Load(id); ok {
		return
	}
	// New goroutine: clean up whatever died, then register for death.
	s.evictDead()
	s.active.Store(id, s.watcher.Register(h, id))
}

// Remove deletes the calling goroutine's entry and clears its slot.
//
// The sentinel stays registered; if the goroutine never stores again, its
// eventual death drains an identity with no entry, which is a no-op.
func (s *Enhanced[T]) Remove() {
	s.fallback.Delete(goid.ID())
	s.slot.Clear()
}

// Size returns the current number of fallback entries. Intended for tests
// and observation, not production decisions: the count is instantaneous
// and another goroutine may be mutating the map while it is taken.
func (s *Enhanced[T]) Size() int {
	n := 0
	s.fallback.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// evictDead processes every death the watcher has queued: the identity
// leaves the active index, the slot and the fallback map, and the evicted
// value, if any, goes to the disposal callback. It also counts toward the
// thread registry's amortized sweep, so dead registry roots are dropped
// even when no new goroutine ever registers.
func (s *Enhanced[T]) evictDead() {
	thread.MaybeSweep()
	for _, id := range s.watcher.DrainDead() {
		s.active.Delete(id)
		s.slot.Evict(id)
		if v, ok := s.fallback.LoadAndDelete(id); ok {
			s.dispose(v.(T))
		}
	}
}

// dispose runs the closer, swallowing a panic. Eviction happens on
// whatever goroutine triggered the drain, possibly an unrelated caller
// inside Get, and a user callback must never crash it.
func (s *Enhanced[T]) dispose(value T) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Debug("threadlocal: disposal callback panicked")
		}
	}()
	s.closer(value)
}

// activeLen counts live sentinels in the active index. Test hook.
func (s *Enhanced[T]) activeLen() int {
	n := 0
	s.active.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
