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

// Package list implements a circular, sentinel-terminated doubly linked list
// whose nodes are obtained from, and released to, a configurable Allocator.
//
// The list is a ring: the sentinel node's next link is the first element and
// its prev link is the last element. The sentinel never carries a value and
// doubles as the End() position. Nodes never move in memory once allocated,
// so an Iterator remains valid until the node it refers to is erased,
// regardless of what else happens to the list. This includes Splice, which
// relinks an existing node rather than copying its value.
//
// A List is NOT goroutine-safe.
package list

import "iter"

// Node is an element of a List. The links are structural only; the List that
// allocated the node owns it.
type Node[T any] struct {
	next, prev *Node[T]
	Value      T
}

// List is a doubly linked list of T. The zero value is not usable; construct
// a List with New, NewWithLen or NewFilled.
type List[T any] struct {
	// root is the sentinel. It is allocated with new rather than through the
	// allocator so that Move can hand a fresh sentinel to the source without
	// risking an allocation failure.
	root   *Node[T]
	len    int
	alloc  Allocator[T]
	policy Propagation
}

// New returns an empty list.
func New[T any](options ...Option[T]) *List[T] {
	l := &List[T]{
		alloc:  defaultAllocator[T]{},
		policy: PropagateOnMove,
	}
	for _, op := range options {
		op.apply(l)
	}
	l.root = newSentinel[T]()
	return l
}

// NewWithLen returns a list holding n zero values.
func NewWithLen[T any](n int, options ...Option[T]) *List[T] {
	var zero T
	return NewFilled(n, zero, options...)
}

// NewFilled returns a list holding n copies of v.
func NewFilled[T any](n int, v T, options ...Option[T]) *List[T] {
	l := New(options...)
	for i := 0; i < n; i++ {
		l.insertAfter(l.root.prev, v)
	}
	return l
}

func newSentinel[T any]() *Node[T] {
	s := &Node[T]{}
	s.next = s
	s.prev = s
	return s
}

// Len returns the number of elements in the list. The complexity is O(1).
func (l *List[T]) Len() int { return l.len }

// Empty returns true if the list has no elements.
func (l *List[T]) Empty() bool { return l.len == 0 }

// Allocator returns the allocator used for the list's nodes.
func (l *List[T]) Allocator() Allocator[T] { return l.alloc }

// Begin returns the position of the first element, or End() if the list is
// empty.
func (l *List[T]) Begin() Iterator[T] { return Iterator[T]{n: l.root.next} }

// End returns the position one past the last element.
func (l *List[T]) End() Iterator[T] { return Iterator[T]{n: l.root} }

// CBegin is the read-only form of Begin.
func (l *List[T]) CBegin() ConstIterator[T] { return ConstIterator[T]{n: l.root.next} }

// CEnd is the read-only form of End.
func (l *List[T]) CEnd() ConstIterator[T] { return ConstIterator[T]{n: l.root} }

// Front returns the first value of the list, false if the list is empty.
func (l *List[T]) Front() (v T, ok bool) {
	if l.len == 0 {
		return v, false
	}
	return l.root.next.Value, true
}

// Back returns the last value of the list, false if the list is empty.
func (l *List[T]) Back() (v T, ok bool) {
	if l.len == 0 {
		return v, false
	}
	return l.root.prev.Value, true
}

// PushFront inserts v at the front of the list.
func (l *List[T]) PushFront(v T) Iterator[T] {
	return Iterator[T]{n: l.insertAfter(l.root, v)}
}

// PushBack inserts v at the back of the list.
func (l *List[T]) PushBack(v T) Iterator[T] {
	return Iterator[T]{n: l.insertAfter(l.root.prev, v)}
}

// PopFront removes the first element, returning its value. It is a noop
// returning false on an empty list.
func (l *List[T]) PopFront() (v T, ok bool) {
	if l.len == 0 {
		return v, false
	}
	v = l.root.next.Value
	l.erase(l.root.next)
	return v, true
}

// PopBack removes the last element, returning its value. It is a noop
// returning false on an empty list.
func (l *List[T]) PopBack() (v T, ok bool) {
	if l.len == 0 {
		return v, false
	}
	v = l.root.prev.Value
	l.erase(l.root.prev)
	return v, true
}

// Insert inserts v immediately before pos and returns the position of the
// new element. Inserting before End() appends. No other iterator is
// invalidated.
func (l *List[T]) Insert(pos Iterator[T], v T) Iterator[T] {
	return Iterator[T]{n: l.insertAfter(pos.n.prev, v)}
}

// InsertAfter inserts v immediately after pos and returns the position of the
// new element. Inserting after End() prepends.
func (l *List[T]) InsertAfter(pos Iterator[T], v T) Iterator[T] {
	return Iterator[T]{n: l.insertAfter(pos.n, v)}
}

// Erase removes the element at pos and returns the position that followed
// it. Erasing End() is a noop that returns End(). Only iterators referring
// to the erased element are invalidated. pos must belong to l.
func (l *List[T]) Erase(pos Iterator[T]) Iterator[T] {
	return Iterator[T]{n: l.erase(pos.n)}
}

// Splice unlinks the element at it from src and links it immediately before
// pos in l, returning it. No allocation is performed and it remains valid,
// now as a position of l. src may be l. Splicing src's End() is a noop.
func (l *List[T]) Splice(pos Iterator[T], src *List[T], it Iterator[T]) Iterator[T] {
	n := it.n
	if n == src.root || n == pos.n {
		return it
	}
	unlink(n)
	src.len--
	link(n, pos.n.prev)
	l.len++
	return it
}

// Clear removes and frees every element. The allocator is kept.
func (l *List[T]) Clear() {
	l.freeRing(l.root, l.alloc)
	l.root.next = l.root
	l.root.prev = l.root
	l.len = 0
}

// Close frees every element, returning the nodes to the allocator. It is
// invalid to use a List after it has been closed, though Close itself is
// idempotent.
func (l *List[T]) Close() {
	if l.root == nil {
		return
	}
	l.freeRing(l.root, l.alloc)
	l.root = nil
	l.len = 0
}

// All returns an iterator over the values of the list, front to back.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := l.root.next; n != l.root; n = n.next {
			if !yield(n.Value) {
				return
			}
		}
	}
}

// Backward returns an iterator over the values of the list, back to front.
func (l *List[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := l.root.prev; n != l.root; n = n.prev {
			if !yield(n.Value) {
				return
			}
		}
	}
}

// Clone returns a deep copy of l. The copy allocates its nodes from the
// allocator selected by l's allocator (see CopySelector) and inherits l's
// propagation policy.
func (l *List[T]) Clone() *List[T] {
	return l.cloneWith(SelectOnCopy(l.alloc))
}

func (l *List[T]) cloneWith(alloc Allocator[T]) *List[T] {
	c := &List[T]{
		root:   newSentinel[T](),
		alloc:  alloc,
		policy: l.policy,
	}
	for n := l.root.next; n != l.root; n = n.next {
		c.insertAfter(c.root.prev, n.Value)
	}
	return c
}

// Move transfers every node of l to a new list in O(1) and returns it. l is
// left empty with a fresh sentinel and keeps its allocator, so it remains
// usable.
func (l *List[T]) Move() *List[T] {
	m := &List[T]{
		root:   l.root,
		len:    l.len,
		alloc:  l.alloc,
		policy: l.policy,
	}
	l.root = newSentinel[T]()
	l.len = 0
	return m
}

// CopyFrom replaces the contents of l with a copy of src. The copy is built
// in full before l is touched, so if an allocation fails l is unchanged. If
// l's policy includes PropagateOnCopy, l adopts src's allocator; otherwise
// the copy is allocated from l's own allocator. Copying l into itself is a
// noop.
func (l *List[T]) CopyFrom(src *List[T]) {
	if l == src {
		return
	}
	alloc := l.alloc
	if l.policy&PropagateOnCopy != 0 {
		alloc = src.alloc
	}
	tmp := src.cloneWith(alloc)
	tmp.policy = l.policy
	l.swap(tmp)
	tmp.Close()
}

// MoveFrom replaces the contents of l with the contents of src, leaving src
// empty. If l's policy includes PropagateOnMove the nodes are transferred in
// O(1) and l adopts src's allocator. Otherwise l keeps its allocator and each
// value is moved into a node allocated by it, with src's nodes released to
// src's allocator. Moving l into itself is a noop.
func (l *List[T]) MoveFrom(src *List[T]) {
	if l == src {
		return
	}
	var tmp *List[T]
	if l.policy&PropagateOnMove != 0 {
		tmp = src.Move()
	} else {
		tmp = src.cloneWith(l.alloc)
		src.Clear()
	}
	tmp.policy = l.policy
	l.swap(tmp)
	tmp.Close()
}

// Swap exchanges the elements of l and other. Allocators are exchanged too
// when l's policy is PropagateAlways; otherwise both lists must use
// interchangeable allocators.
func (l *List[T]) Swap(other *List[T]) {
	if l == other {
		return
	}
	if l.policy == PropagateAlways {
		l.alloc, other.alloc = other.alloc, l.alloc
	}
	l.root, other.root = other.root, l.root
	l.len, other.len = other.len, l.len
}

// swap exchanges the nodes and allocators of l and other, leaving the
// policies alone.
func (l *List[T]) swap(other *List[T]) {
	l.root, other.root = other.root, l.root
	l.len, other.len = other.len, l.len
	l.alloc, other.alloc = other.alloc, l.alloc
}

// insertAfter allocates a node holding v, links it after at, increments
// l.len, and returns the node.
func (l *List[T]) insertAfter(at *Node[T], v T) *Node[T] {
	n := l.alloc.Alloc()
	n.Value = v
	link(n, at)
	l.len++
	return n
}

// erase unlinks n, releases it, decrements l.len, and returns the node that
// followed it.
func (l *List[T]) erase(n *Node[T]) *Node[T] {
	if n == l.root {
		return n
	}
	next := n.next
	unlink(n)
	l.len--
	l.release(n, l.alloc)
	return next
}

func (l *List[T]) release(n *Node[T], alloc Allocator[T]) {
	var zero T
	n.Value = zero // avoid memory leaks
	alloc.Free(n)
}

// freeRing releases every non-sentinel node of the ring rooted at root.
func (l *List[T]) freeRing(root *Node[T], alloc Allocator[T]) {
	for n := root.next; n != root; {
		next := n.next
		n.next = nil
		n.prev = nil
		l.release(n, alloc)
		n = next
	}
}

// link inserts n after at.
func link[T any](n, at *Node[T]) {
	n.prev = at
	n.next = at.next
	n.prev.next = n
	n.next.prev = n
}

// unlink removes n from its ring.
func unlink[T any](n *Node[T]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = nil // avoid memory leaks
	n.prev = nil // avoid memory leaks
}
