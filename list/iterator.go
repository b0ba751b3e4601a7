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

package list

// Iterator is a position in a List through which the element can be read
// and modified. Iterators are comparable: two iterators are equal iff they
// refer to the same node. The zero Iterator refers to no list.
type Iterator[T any] struct {
	n *Node[T]
}

// Value returns the element at the position. It is invalid to call Value on
// End().
func (it Iterator[T]) Value() T { return it.n.Value }

// Ptr returns a pointer to the element at the position, valid until the
// element is erased.
func (it Iterator[T]) Ptr() *T { return &it.n.Value }

// Set replaces the element at the position.
func (it Iterator[T]) Set(v T) { it.n.Value = v }

// Next returns the following position. The position after the last element
// is End(), and the position after End() is the first element.
func (it Iterator[T]) Next() Iterator[T] { return Iterator[T]{n: it.n.next} }

// Prev returns the preceding position.
func (it Iterator[T]) Prev() Iterator[T] { return Iterator[T]{n: it.n.prev} }

// ReadOnly returns a read-only view of the same position.
func (it Iterator[T]) ReadOnly() ConstIterator[T] { return ConstIterator[T]{n: it.n} }

// Valid returns true if the iterator refers to a node.
func (it Iterator[T]) Valid() bool { return it.n != nil }

// ConstIterator is a read-only position in a List. There is no way to obtain
// an Iterator from a ConstIterator.
type ConstIterator[T any] struct {
	n *Node[T]
}

// Value returns the element at the position.
func (it ConstIterator[T]) Value() T { return it.n.Value }

// Next returns the following position.
func (it ConstIterator[T]) Next() ConstIterator[T] { return ConstIterator[T]{n: it.n.next} }

// Prev returns the preceding position.
func (it ConstIterator[T]) Prev() ConstIterator[T] { return ConstIterator[T]{n: it.n.prev} }
