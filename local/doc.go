// Package local provides goroutine-local storage that survives recycling
// worker pools.
//
// Caching an expensive-to-construct object in thread-local storage is a
// classic optimization, and some pool runtimes break it: for isolation
// they wipe every thread-local value once a task finishes, so a recycled
// worker starts each unrelated task with empty slots. A plain
// per-goroutine cell then misses on every task and the "cache" rebuilds
// its contents forever.
//
// A [Value] keeps the fast per-goroutine slot but shadows it with a
// fallback map keyed by goroutine identity, which is stable for as long
// as the goroutine lives. When the slot has been wiped out-of-band, Get
// transparently recovers the value from the fallback map and re-seeds the
// slot. When a goroutine terminates, a weak sentinel registered with the
// runtime's collector reports its identity and the next container call
// evicts the stale entry. No goroutine's entry is held beyond its life,
// and no identity is trusted after the runtime may have recycled it.
//
// # Quick Start
//
//	parsers := local.New(func() *Parser {
//		return NewParser() // expensive; built once per worker
//	})
//
//	// Inside any task, on any pool:
//	p, err := parsers.Get()
//	if err != nil {
//		return err
//	}
//	p.Parse(input)
//
// For values holding releasable resources, attach a closer; it runs with
// a goroutine's last value once that goroutine is gone:
//
//	conns := local.NewWithCloser(dial, func(c *Conn) { c.Close() })
//
// # API Overview
//
// The package provides:
//   - Containers: [New], [NewWithCloser], [NewBasic]
//   - Per-goroutine operations: [Value.Get], [Value.Set], [Value.Remove]
//   - Observation: [Value.Size]
//   - Version information: [GetInfo], [Version]
//
// # Semantics
//
// All operations run synchronously on the calling goroutine; the package
// spawns no goroutines and never blocks. Goroutines are fully isolated:
// no goroutine can observe another's value through this API. Eviction of
// dead goroutines' entries is eventual: it happens opportunistically on
// later Get/Set calls, after the collector has reclaimed the dead
// goroutine's handle. [Value.Size] therefore converges toward the number
// of live users rather than tracking it exactly.
//
// The only failure the API reports is [ErrNilValue]: the factory
// manufactured a nil value, which violates the container's contract that
// Get never returns nil. A failed Get writes nothing.
//
// # Limitations
//
// This is an in-process cache primitive, not a store: entries are bound
// 1:1 to live goroutines, have no durability and no meaning across
// processes. There is no cancellation or timeout concept.
package local
