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

import "github.com/cockroachdb/chained/list"

// Iterator is a position in a Map through which the value of the entry can
// be read and modified. Iterators are comparable and remain valid until the
// entry they refer to is erased, including across growth and Rehash.
type Iterator[K comparable, V any] struct {
	it list.Iterator[Entry[K, V]]
}

// Key returns the key of the entry. It is invalid to call Key on End().
func (i Iterator[K, V]) Key() K { return i.it.Ptr().Key }

// Value returns the value of the entry.
func (i Iterator[K, V]) Value() V { return i.it.Ptr().Value }

// Ptr returns a pointer to the value of the entry.
func (i Iterator[K, V]) Ptr() *V { return &i.it.Ptr().Value }

// Set replaces the value of the entry.
func (i Iterator[K, V]) Set(v V) { i.it.Ptr().Value = v }

// Next returns the following position in iteration order.
func (i Iterator[K, V]) Next() Iterator[K, V] { return Iterator[K, V]{it: i.it.Next()} }

// Prev returns the preceding position in iteration order. The position
// preceding Begin() is End(), and End().Prev() is the last entry.
func (i Iterator[K, V]) Prev() Iterator[K, V] { return Iterator[K, V]{it: i.it.Prev()} }

// ReadOnly returns a read-only view of the same position.
func (i Iterator[K, V]) ReadOnly() ConstIterator[K, V] {
	return ConstIterator[K, V]{it: i.it.ReadOnly()}
}

// ConstIterator is a read-only position in a Map.
type ConstIterator[K comparable, V any] struct {
	it list.ConstIterator[Entry[K, V]]
}

// Key returns the key of the entry.
func (i ConstIterator[K, V]) Key() K { return i.it.Value().Key }

// Value returns the value of the entry.
func (i ConstIterator[K, V]) Value() V { return i.it.Value().Value }

// Next returns the following position in iteration order.
func (i ConstIterator[K, V]) Next() ConstIterator[K, V] {
	return ConstIterator[K, V]{it: i.it.Next()}
}

// Prev returns the preceding position in iteration order.
func (i ConstIterator[K, V]) Prev() ConstIterator[K, V] {
	return ConstIterator[K, V]{it: i.it.Prev()}
}
