// Copyright 2025 The threadlocal Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"errors"
	"reflect"
)

// ErrNilValue reports an invariant violation: the configured factory
// manufactured a nil value. Get fails with this error, leaves no entry
// behind, and propagates it synchronously to the caller.
var ErrNilValue = errors.New("threadlocal: factory returned a nil value")

// isNil reports whether value is nil for the kinds that have a nil.
//
// T is unconstrained, so the check goes through reflection: a nil
// interface, or a nil pointer/map/slice/chan/func behind one. Value kinds
// (ints, strings, structs) are never nil.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
