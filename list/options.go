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

// Option provides an interface to do work on List while it is being created.
type Option[T any] interface {
	apply(l *List[T])
}

// Allocator specifies an interface for allocating and releasing the nodes
// used by a List. The default allocator utilizes Go's builtin new and allows
// the GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that nodes be
// freed then List.Close must be called in order to ensure Free is called for
// every node still in the list.
type Allocator[T any] interface {
	// Alloc should return a pointer equivalent to new(Node[T]). An allocator
	// that cannot satisfy the request must panic; the list never observes a
	// nil node.
	Alloc() *Node[T]

	// Free can optionally release the memory associated with a node that is
	// guaranteed to have been returned by Alloc and is no longer linked.
	Free(n *Node[T])
}

// CopySelector is implemented by allocators that want a copy of a list to
// use a different allocator than the source list. List.Clone calls
// SelectOnCopy on the source's allocator and allocates the copy from the
// result.
type CopySelector[T any] interface {
	SelectOnCopy() Allocator[T]
}

// SelectOnCopy returns the allocator a copy of a list using a should be
// allocated from.
func SelectOnCopy[T any](a Allocator[T]) Allocator[T] {
	if s, ok := a.(CopySelector[T]); ok {
		return s.SelectOnCopy()
	}
	return a
}

type defaultAllocator[T any] struct{}

func (defaultAllocator[T]) Alloc() *Node[T] {
	return new(Node[T])
}

func (defaultAllocator[T]) Free(n *Node[T]) {
}

// Propagation specifies whether a List adopts the allocator of the list it
// is assigned from. It is fixed when the List is created.
type Propagation uint8

const (
	// PropagateOnCopy adopts the source allocator on CopyFrom.
	PropagateOnCopy Propagation = 1 << iota
	// PropagateOnMove adopts the source allocator on MoveFrom, which allows
	// the nodes to be transferred without copying.
	PropagateOnMove

	// PropagateNever keeps the receiver's allocator on CopyFrom and
	// MoveFrom.
	PropagateNever Propagation = 0
	// PropagateAlways adopts the source allocator on CopyFrom, MoveFrom and
	// Swap.
	PropagateAlways = PropagateOnCopy | PropagateOnMove
)

func (p Propagation) String() string {
	switch p {
	case PropagateNever:
		return "never"
	case PropagateOnCopy:
		return "on-copy"
	case PropagateOnMove:
		return "on-move"
	case PropagateAlways:
		return "always"
	default:
		return "invalid"
	}
}

type allocatorOption[T any] struct {
	allocator Allocator[T]
}

func (op allocatorOption[T]) apply(l *List[T]) {
	l.alloc = op.allocator
}

// WithAllocator is an option to specify the Allocator to use for a List[T].
func WithAllocator[T any](allocator Allocator[T]) Option[T] {
	return allocatorOption[T]{allocator}
}

type propagationOption[T any] struct {
	policy Propagation
}

func (op propagationOption[T]) apply(l *List[T]) {
	l.policy = op.policy
}

// WithPropagation is an option to specify the allocator Propagation policy
// of a List[T]. The default is PropagateOnMove.
func WithPropagation[T any](policy Propagation) Option[T] {
	return propagationOption[T]{policy}
}
