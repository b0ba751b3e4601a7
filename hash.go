// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chained

import (
	"hash/maphash"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// hashFn is the type-erased form of the hash function passed to WithHash.
type hashFn func(key unsafe.Pointer, seed uintptr) uintptr

// defaultHash returns the hash function used when WithHash is not given.
// Strings are hashed with xxhash seeded by the map's seed; every other
// comparable key type goes through maphash, which hashes the key the same way
// the builtin map does.
func defaultHash[K comparable]() hashFn {
	var k K
	if _, ok := any(k).(string); ok {
		return func(key unsafe.Pointer, seed uintptr) uintptr {
			var d xxhash.Digest
			d.ResetWithSeed(uint64(seed))
			_, _ = d.WriteString(*(*string)(key))
			return uintptr(d.Sum64())
		}
	}
	s := maphash.MakeSeed()
	return func(key unsafe.Pointer, seed uintptr) uintptr {
		return uintptr(maphash.Comparable(s, *(*K)(key))) ^ seed
	}
}

// noescape hides a pointer from escape analysis.  noescape is
// the identity function but escape analysis doesn't think the
// output depends on the input.  noescape is inlined and currently
// compiles down to zero instructions.
// USE CAREFULLY!
//
//go:nosplit
//go:nocheckptr
func noescape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
