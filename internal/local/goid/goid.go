// Copyright 2025 The threadlocal Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package goid extracts goroutine identifiers from the runtime.
//
// A goroutine ID is the module's ThreadIdentity: it is assigned when the
// goroutine starts, never changes while the goroutine lives, and the
// numeric value may be handed to a new goroutine after this one is gone.
// Callers must therefore never treat an ID as valid beyond the lifetime
// of the goroutine it was read from (the thread registry and death
// watcher exist for exactly that reason).
//
// The runtime does not export goroutine IDs, so both functions here parse
// the header lines of runtime.Stack output:
//
//	goroutine 123 [running]:
//	...
//
// Performance: ~1500ns per ID() call, dominated by runtime.Stack. That is
// acceptable for a container whose operations are called per task, not per
// memory access. An assembly fast path reading g.goid directly would slot
// in behind ID() without changing any caller.
package goid

import "runtime"

// ID returns the calling goroutine's ID.
//
// Returns 0 only if the runtime.Stack header format changes, which would
// be a Go runtime incompatibility, not a runtime condition.
func ID() int64 {
	// Only the first line is needed. Format: "goroutine 123 [running]:\n..."
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseID(buf[:n])
}

// parseID extracts the goroutine ID from a stack trace header.
//
// Expected input: "goroutine 123 [running]:...". Returns 0 if the buffer
// does not start with a goroutine header. Direct byte parsing, no
// allocations beyond the prefix check.
func parseID(buf []byte) int64 {
	const prefix = "goroutine "
	const prefixLen = 10 // len("goroutine ")

	if len(buf) < prefixLen {
		return 0
	}
	if string(buf[:prefixLen]) != prefix {
		return 0
	}

	// Digits run until the space before "[running]".
	var id int64
	for i := prefixLen; i < len(buf); i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
