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
	"unsafe"

	"github.com/cockroachdb/chained/list"
	"go.uber.org/zap"
)

// option provide an interface to do work on Map while it is being created.
type option[K comparable, V any] interface {
	apply(m *Map[K, V])
}

type hashOption[K comparable, V any] struct {
	hash func(key *K, seed uintptr) uintptr
}

func (op hashOption[K, V]) apply(m *Map[K, V]) {
	m.hash = *(*hashFn)(noescape(unsafe.Pointer(&op.hash)))
}

// WithHash is an option to specify the hash function to use for a Map[K,V].
// Keys that are equal according to the map's equality predicate must hash to
// the same value.
func WithHash[K comparable, V any](hash func(key *K, seed uintptr) uintptr) option[K, V] {
	return hashOption[K, V]{hash}
}

type equalOption[K comparable, V any] struct {
	equal func(a, b K) bool
}

func (op equalOption[K, V]) apply(m *Map[K, V]) {
	m.equal = op.equal
}

// WithEqual is an option to specify the key equality predicate to use for a
// Map[K,V]. The default is ==.
func WithEqual[K comparable, V any](equal func(a, b K) bool) option[K, V] {
	return equalOption[K, V]{equal}
}

type maxLoadFactorOption[K comparable, V any] struct {
	f float64
}

func (op maxLoadFactorOption[K, V]) apply(m *Map[K, V]) {
	m.maxLoadFactor = op.f
}

// WithMaxLoadFactor is an option to specify the maximum load factor of a
// Map[K,V]. The value must be positive. The default is 0.75.
func WithMaxLoadFactor[K comparable, V any](f float64) option[K, V] {
	return maxLoadFactorOption[K, V]{f}
}

type initialBucketsOption[K comparable, V any] struct {
	n int
}

func (op initialBucketsOption[K, V]) apply(m *Map[K, V]) {
	m.initialBuckets = op.n
}

// WithInitialBuckets is an option to specify the number of buckets a Map[K,V]
// starts out with. The default is 1.
func WithInitialBuckets[K comparable, V any](n int) option[K, V] {
	return initialBucketsOption[K, V]{n}
}

type allocatorOption[K comparable, V any] struct {
	allocator list.Allocator[Entry[K, V]]
}

func (op allocatorOption[K, V]) apply(m *Map[K, V]) {
	m.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for the
// entries of a Map[K,V]. Each entry occupies exactly one list node.
//
// If the allocator is manually managing memory and requires that nodes be
// freed then Map.Close must be called.
func WithAllocator[K comparable, V any](allocator list.Allocator[Entry[K, V]]) option[K, V] {
	return allocatorOption[K, V]{allocator}
}

type propagationOption[K comparable, V any] struct {
	policy list.Propagation
}

func (op propagationOption[K, V]) apply(m *Map[K, V]) {
	m.policy = op.policy
}

// WithPropagation is an option to specify whether a Map[K,V] adopts the
// allocator of the map it is assigned from by CopyFrom and MoveFrom. The
// default is list.PropagateOnMove.
func WithPropagation[K comparable, V any](policy list.Propagation) option[K, V] {
	return propagationOption[K, V]{policy}
}

type loggerOption[K comparable, V any] struct {
	logger *zap.Logger
}

func (op loggerOption[K, V]) apply(m *Map[K, V]) {
	m.logger = op.logger
}

// WithLogger is an option to specify a logger for a Map[K,V]. Growth and
// rehash events are logged at debug level. The default discards everything.
func WithLogger[K comparable, V any](logger *zap.Logger) option[K, V] {
	return loggerOption[K, V]{logger}
}
