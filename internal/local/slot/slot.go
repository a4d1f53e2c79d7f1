// Copyright 2025 The threadlocal Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package slot models the native thread-local slot.
//
// A Cell is an opaque per-goroutine storage cell: Load, Store and Clear
// operate on the calling goroutine's compartment only. It is the fast
// path of the fallback store and deliberately the unreliable one: an
// external pool may wipe a goroutine's compartments between tasks, which
// is the behavior the fallback store exists to survive.
//
// The package keeps a registry of every Cell ever created, mirroring how a
// host runtime owns all thread-local cells of a thread: WipeCurrent clears
// the calling goroutine's compartment in every cell at once, which is the
// capability a recycling pool exercises after each task. Cells live for
// the life of the process, like the containers that own them.
package slot

import (
	"sync"

	"github.com/kolkov/threadlocal/internal/local/goid"
)

// wiper is the per-cell capability WipeCurrent exercises.
type wiper interface {
	wipe(id int64)
}

var (
	cellsMu sync.Mutex
	cells   []wiper
)

// Cell is a native thread-local slot holding one T per goroutine.
//
// Safe for concurrent use; each goroutine touches only its own
// compartment, except for out-of-band wipes keyed by identity.
type Cell[T any] struct {
	values sync.Map // int64 (goroutine ID) -> T
}

// New creates a Cell and registers it for whole-goroutine wipes.
func New[T any]() *Cell[T] {
	c := &Cell[T]{}
	cellsMu.Lock()
	cells = append(cells, c)
	cellsMu.Unlock()
	return c
}

// Load returns the calling goroutine's value, if any.
func (c *Cell[T]) Load() (T, bool) {
	if v, ok := c.values.Load(goid.ID()); ok {
		return v.(T), true
	}
	var zero T
	return zero, false
}

// Store sets the calling goroutine's value.
func (c *Cell[T]) Store(value T) {
	c.values.Store(goid.ID(), value)
}

// Clear removes the calling goroutine's value.
func (c *Cell[T]) Clear() {
	c.values.Delete(goid.ID())
}

// wipe clears the compartment of an arbitrary goroutine. Only WipeCurrent
// and dead-goroutine cleanup paths may use identities other than the
// caller's own.
func (c *Cell[T]) wipe(id int64) {
	c.values.Delete(id)
}

// Evict removes the compartment of a goroutine known to be dead.
//
// In a host runtime the native slot dies with its thread; this emulation
// has to do that work itself. The fallback store calls Evict for each
// identity drained from the death watcher, so a goroutine that stores a
// value and exits does not leave a compartment behind forever.
func (c *Cell[T]) Evict(id int64) {
	c.wipe(id)
}

// WipeCurrent clears the calling goroutine's compartment in every
// registered cell.
//
// A recycling pool calls this when a task finishes, the way host runtimes
// clear all thread-local data between unrelated tasks for isolation.
func WipeCurrent() {
	id := goid.ID()

	cellsMu.Lock()
	snapshot := make([]wiper, len(cells))
	copy(snapshot, cells)
	cellsMu.Unlock()

	// Wipe outside the lock; New during a wipe only misses cells that did
	// not exist when the task ran.
	for _, c := range snapshot {
		c.wipe(id)
	}
}
