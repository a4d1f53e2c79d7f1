// Copyright 2025 The threadlocal Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store implements the fallback store: a per-goroutine container
// whose values survive an external actor wiping the native thread-local
// slot between tasks.
//
// Two maps back every container. The native slot (slot.Cell) is the fast
// path: a plain per-goroutine cell that a recycling pool may clear at any
// task boundary. The fallback map, keyed by goroutine identity, is the
// shadow store: authoritative for as long as the goroutine lives. Get
// re-seeds the slot from the fallback map after a wipe. A death watcher
// evicts fallback entries and slot compartments once
// their goroutines are collected, so the map stays bounded by the number
// of live goroutines that ever stored a value.
//
// All work happens synchronously on whichever goroutine calls Get, Set or
// Remove; the package spawns nothing and never blocks.
package store

import (
	"sync"

	"github.com/kolkov/threadlocal/internal/local/deathwatch"
	"github.com/kolkov/threadlocal/internal/local/goid"
	"github.com/kolkov/threadlocal/internal/local/slot"
	"github.com/kolkov/threadlocal/internal/local/thread"
)

// Basic is the plain variant of the fallback store.
//
// It registers a death sentinel every time an identity is first seen in
// the fallback map and evicts without ceremony: no disposal callback, no
// registration dedup. Enhanced adds both.
//
// Safe for concurrent use by any number of goroutines.
type Basic[T any] struct {
	slot     *slot.Cell[T]
	fallback sync.Map // int64 (ThreadIdentity) -> T
	factory  func() T
	watcher  *deathwatch.Watcher
}

// NewBasic creates a Basic store with the given value factory.
//
// The factory runs on the first Get of any goroutine that has no stored
// value, and must not return nil.
func NewBasic[T any](factory func() T) *Basic[T] {
	return &Basic[T]{
		slot:    slot.New[T](),
		factory: factory,
		watcher: deathwatch.New(),
	}
}

// Get returns the calling goroutine's value, manufacturing it on first use.
//
// Resolution order:
//  1. Native slot: a hit means no pool wipe since the last write.
//  2. Fallback map: a hit means the slot was wiped out-of-band; the slot
//     is re-seeded so the next Get takes the fast path again.
//  3. Factory: first access on this goroutine; the result is stored via
//     Set and returned. A nil factory result fails with ErrNilValue and
//     writes nothing.
func (s *Basic[T]) Get() (T, error) {
	if v, ok := s.slot.Load(); ok {
		return v, nil
	}

	s.evictDead()

	if v, ok := s.fallback.Load(goid.ID()); ok {
		value := v.(T)
		// The slot was wiped behind our back; re-seed it.
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
// the native slot, registering a death sentinel if this identity had no
// prior entry.
//
// Two first-time Set calls racing on one identity may register two
// sentinels; both fire on death and the extra eviction is a no-op.
func (s *Basic[T]) Set(value T) {
	s.evictDead()

	h := thread.Current()
	if _, loaded := s.fallback.Swap(h.ID(), value); !loaded {
		s.watcher.Register(h, h.ID())
	}
	s.slot.Store(value)
}

// Remove deletes the calling goroutine's entry and clears its slot. The
// next Get manufactures a fresh value.
func (s *Basic[T]) Remove() {
	s.fallback.Delete(goid.ID())
	s.slot.Clear()
}

// evictDead drops the fallback entry and the slot compartment of every
// identity the watcher has collected since the last drain. It also counts
// toward the thread registry's amortized sweep, so dead registry roots
// are dropped even when no new goroutine ever registers.
func (s *Basic[T]) evictDead() {
	thread.MaybeSweep()
	for _, id := range s.watcher.DrainDead() {
		s.fallback.Delete(id)
		s.slot.Evict(id)
	}
}

// len counts live fallback entries. Test hook; Enhanced exposes Size.
func (s *Basic[T]) len() int {
	n := 0
	s.fallback.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
