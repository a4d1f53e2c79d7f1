// Package local provides the public API for goroutine-local storage with
// a death-watched fallback.
//
// See doc.go for detailed documentation and examples.
package local

import (
	internal "github.com/kolkov/threadlocal/internal/local/store"
)

// ErrNilValue is returned by Get when the configured factory manufactures
// a nil value. The failed Get writes nothing; the container stays usable.
var ErrNilValue = internal.ErrNilValue

// Value is a goroutine-local container whose contents survive an external
// pool wiping thread-local slots between tasks.
//
// This is the full-featured variant: sentinel registration is deduplicated
// per goroutine and an optional closer runs with a goroutine's last value
// once that goroutine has terminated and its entry is reclaimed.
//
// A Value is created once and lives for the rest of the process; pass it
// by reference to whatever needs per-goroutine caching. Safe for
// concurrent use by any number of goroutines.
type Value[T any] struct {
	s *internal.Enhanced[T]
}

// New creates a Value whose factory manufactures the per-goroutine default.
//
// The factory runs on the first Get of each goroutine that has not stored
// a value, and must not return nil. No closer is attached; use
// NewWithCloser when the cached values hold releasable resources.
func New[T any](factory func() T) *Value[T] {
	return NewWithCloser(factory, nil)
}

// NewWithCloser creates a Value with a disposal callback.
//
// closer is invoked with a goroutine's last stored value when that
// goroutine's entry is evicted after its death. It may run on any
// goroutine that happens to touch the container, so it must be safe to
// call from anywhere; a panic inside it is swallowed. A nil closer is a
// no-op.
func NewWithCloser[T any](factory func() T, closer func(T)) *Value[T] {
	return &Value[T]{s: internal.NewEnhanced(factory, closer)}
}

// Get returns the calling goroutine's value.
//
// The native slot is consulted first; on a miss (first access, or the slot
// was wiped by a pool between tasks) the value is recovered from the
// fallback map and the slot re-seeded. Only when both miss does the
// factory run. Get never returns a nil value: a nil factory result fails
// with ErrNilValue.
func (v *Value[T]) Get() (T, error) {
	return v.s.Get()
}

// Set stores value for the calling goroutine. value must not be nil;
// storing a nil value is a caller error with undefined behavior.
func (v *Value[T]) Set(value T) {
	v.s.Set(value)
}

// Remove deletes the calling goroutine's value. A later Get manufactures
// a fresh default.
func (v *Value[T]) Remove() {
	v.s.Remove()
}

// Size returns the number of goroutines currently holding an entry.
// Intended for tests and observation: reclamation of dead goroutines'
// entries is eventual, so the count converges rather than tracks exactly.
func (v *Value[T]) Size() int {
	return v.s.Size()
}

// Basic is the plain variant of the container: same Get/Set/Remove
// semantics as Value, but it registers a fresh death sentinel on every
// first-seen identity instead of deduplicating, and evicts dead
// goroutines' entries without a disposal callback.
//
// Prefer Value; Basic exists for callers that want the smallest possible
// bookkeeping and have nothing to dispose.
type Basic[T any] struct {
	s *internal.Basic[T]
}

// NewBasic creates a Basic container with the given value factory.
func NewBasic[T any](factory func() T) *Basic[T] {
	return &Basic[T]{s: internal.NewBasic(factory)}
}

// Get returns the calling goroutine's value, manufacturing it on first
// use. Semantics match Value.Get.
func (b *Basic[T]) Get() (T, error) {
	return b.s.Get()
}

// Set stores value for the calling goroutine.
func (b *Basic[T]) Set(value T) {
	b.s.Set(value)
}

// Remove deletes the calling goroutine's value.
func (b *Basic[T]) Remove() {
	b.s.Remove()
}
