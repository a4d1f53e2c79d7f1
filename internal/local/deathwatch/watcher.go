// Copyright 2025 The threadlocal Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package deathwatch detects goroutine death through the collector.
//
// A Watcher is the Go rendition of a ReferenceQueue of phantom references
// to threads: Register wraps a thread handle in a weak reference tagged
// with the goroutine's identity and attaches a runtime cleanup that posts
// the identity to the watcher's queue once the handle has been collected.
// DrainDead removes and returns everything posted since the last drain.
//
// The watcher never extends a handle's lifetime and cannot fail: it only
// observes collector-driven lifecycle events, on the collector's schedule.
// Reclamation is therefore eventual, not bounded: an identity appears in a
// drain some time after its goroutine exits, its handle loses its last
// strong reference, and a GC cycle runs.
package deathwatch

import (
	"runtime"
	"sync"
	"weak"

	"github.com/kolkov/threadlocal/internal/local/thread"
)

// Watcher accumulates the identities of collected thread handles.
//
// Safe for concurrent use. The queue is a mutex-guarded slice rather than
// a channel: cleanup functions run on the runtime's cleanup goroutine and
// must never block, and the queue has no natural bound.
type Watcher struct {
	mu   sync.Mutex
	dead []int64
}

// New returns an empty Watcher.
func New() *Watcher {
	return &Watcher{}
}

// Sentinel is a weak handle to a goroutine's thread object, tagged with
// the goroutine's identity.
//
// The container owns the sentinel; the sentinel does not keep the handle
// alive. Callers may discard it; registration alone is what feeds the
// watcher's queue. Holding it allows a liveness check via Alive.
type Sentinel struct {
	id  int64
	ref weak.Pointer[thread.Handle]
}

// ID returns the identity this sentinel was registered under.
func (s *Sentinel) ID() int64 {
	return s.id
}

// Alive reports whether the watched handle is still reachable.
func (s *Sentinel) Alive() bool {
	return s.ref.Value() != nil
}

// Register tracks h under the given identity and returns the sentinel.
//
// Registering the same handle more than once is harmless: each cleanup
// fires once, the identity is queued once per registration, and draining a
// dead identity repeatedly is a no-op for consumers that delete by key.
// This is exactly the tolerated race when two first-seen Set calls tie.
func (w *Watcher) Register(h *thread.Handle, id int64) *Sentinel {
	s := &Sentinel{id: id, ref: weak.Make(h)}
	// The cleanup argument is the bare identity, never the handle, so the
	// cleanup cannot keep the handle reachable.
	runtime.AddCleanup(h, w.enqueue, id)
	return s
}

// enqueue runs on the runtime's cleanup goroutine once a handle is
// collected. It must not block.
func (w *Watcher) enqueue(id int64) {
	w.mu.Lock()
	w.dead = append(w.dead, id)
	w.mu.Unlock()
}

// DrainDead removes and returns all identities whose handles have been
// collected since the last drain. Non-blocking; may return nil.
func (w *Watcher) DrainDead() []int64 {
	w.mu.Lock()
	drained := w.dead
	w.dead = nil
	w.mu.Unlock()
	return drained
}
