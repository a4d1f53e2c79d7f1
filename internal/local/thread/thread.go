// Copyright 2025 The threadlocal Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package thread provides per-goroutine handle objects.
//
// Go has no reachable "current thread" object the way the JVM has
// Thread.currentThread(), so this package manufactures one: a Handle is a
// small heap object uniquely paired with a live goroutine and carrying its
// identity. The death watcher weakly references Handles; once a Handle
// becomes unreachable the collector reports the goroutine as dead.
//
// Reachability is managed by a registry that holds the only strong
// reference to each Handle:
//
//   - Current() creates and roots a Handle on first use by a goroutine.
//   - Release() drops the root explicitly. Cooperating callers (pool
//     workers) defer it on their exit path, making death detection prompt.
//   - Sweep() drops roots whose goroutines no longer appear in the live
//     set, covering goroutines that never called Release. MaybeSweep
//     triggers it synchronously every sweepInterval accesses; this
//     package spawns no goroutines of its own.
//
// A sweep racing a brand-new registration can, rarely, drop a live
// goroutine's root. The cost is an early eviction downstream (the next
// access re-manufactures the value), never corruption, so no lock is
// held across the scan.
package thread

import (
	"sync"
	"sync/atomic"

	"github.com/kolkov/threadlocal/internal/local/goid"
)

// Handle represents a live goroutine for liveness-tracking purposes.
//
// The zero Handle is not valid; obtain one via Current. A Handle carries
// the goroutine's identity and nothing else: it does not extend the
// goroutine's lifetime and the goroutine does not reference it back.
type Handle struct {
	id int64
}

// ID returns the identity of the goroutine this handle was created for.
func (h *Handle) ID() int64 {
	return h.id
}

var (
	// handles maps goroutine ID to its rooted *Handle. This is the only
	// strong reference keeping a Handle reachable.
	handles sync.Map

	// accesses counts MaybeSweep calls to amortize Sweep.
	accesses atomic.Uint32
)

// sweepInterval is the number of accesses between live-set scans. A scan
// costs ~1ms per 1000 goroutines (runtime.Stack all=true), so one scan
// per 64 container operations keeps the amortized cost small.
const sweepInterval = 64

// Current returns the Handle for the calling goroutine, creating and
// rooting one on first use.
//
// Safe for concurrent use; two racing first calls from the same goroutine
// cannot happen (a goroutine races only with itself here), but distinct
// goroutines allocate independently.
func Current() *Handle {
	MaybeSweep()

	id := goid.ID()

	// Fast path: already registered.
	if v, ok := handles.Load(id); ok {
		return v.(*Handle)
	}

	h := &Handle{id: id}
	actual, _ := handles.LoadOrStore(id, h)
	return actual.(*Handle)
}

// Release drops the registry root for the calling goroutine's handle.
//
// After Release (and once any stack references are gone) the handle is
// unreachable and the collector will fire whatever cleanups observe it.
// Goroutines with a deterministic exit path should defer this; everything
// else is picked up by Sweep.
func Release() {
	handles.Delete(goid.ID())
}

// Sweep drops the roots of goroutines that no longer exist.
//
// Runs synchronously on the caller. Safe for concurrent calls; concurrent
// sweeps scan the same registry and deletions are idempotent.
func Sweep() {
	live := make(map[int64]struct{})
	for _, id := range goid.All() {
		live[id] = struct{}{}
	}

	handles.Range(func(key, _ any) bool {
		if _, ok := live[key.(int64)]; !ok {
			handles.Delete(key)
		}
		return true
	})
}

// MaybeSweep counts one access and triggers a sweep every sweepInterval
// calls.
//
// Every Current call and every store eviction pass counts. The trigger
// must sit on the steady-state path, not only on first-seen registration:
// once a batch of goroutines has registered and died, later container
// calls come from goroutines that are already registered, and those calls
// still have to drop the dead roots or the handles stay reachable forever.
func MaybeSweep() {
	if accesses.Add(1)%sweepInterval == 0 {
		Sweep()
	}
}

// rooted reports whether an identity currently has a registry root.
// Test hook.
func rooted(id int64) bool {
	_, ok := handles.Load(id)
	return ok
}
