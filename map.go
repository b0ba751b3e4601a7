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

// package chained is a Go implementation of a chained hash table whose
// chains are coalesced into a single doubly linked list.
//
// # Coalesced Chaining
//
// A classic separate-chaining hash table keeps one list per bucket. Iterating
// such a table visits every bucket, including the empty ones, so a table
// that has been reserved for a million entries but holds eight is slow to
// iterate. Here all entries live in one shared list (see package list) and
// every bucket's entries occupy a contiguous run of that list. The bucket
// index records, per bucket, the position of the first entry of its run (the
// anchor), or the list's End() position if the bucket is empty:
//
//	buckets:   0     1     2     3
//	           |     |     end   |
//	           v     v           v
//	entries:  a0 -> a0' -> b1 -> d3 -> d3' -> d3'' -> end
//
// Iterating the map is a walk of the list and costs O(len) regardless of the
// number of buckets. Lookups start at the bucket's anchor and walk forward
// while the entries still belong to the bucket.
//
// Every entry stores its full hash and the bucket it was placed in. The
// bucket tag is what terminates a lookup and what decides whether the anchor
// of a bucket can move to the following entry on erase, so the contiguous
// run layout is checked locally rather than assumed.
//
// # Insertion
//
// A new entry of a bucket that has no anchor is appended to the tail of the
// list and becomes the anchor. Otherwise the entry is spliced immediately
// before the current anchor and becomes the new anchor. Either way the runs
// of all other buckets are untouched.
//
// Before placing an entry, the table grows to 2*buckets+1 buckets (scaled by
// the max load factor, see Reserve) for as long as the load factor would
// exceed the maximum. Growth detaches the list and splices every node into a
// fresh list using the insertion rule. No entry is copied or reallocated, so
// iterators remain valid.
//
// # Memory
//
// Each entry is stored inline in one list node obtained from the map's
// allocator (see WithAllocator). The map releases entries explicitly when
// they are erased, on Clear, on assignment and on Close.
package chained

import (
	"iter"
	"math"
	"math/rand/v2"
	"unsafe"

	"github.com/cockroachdb/chained/list"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const defaultMaxLoadFactor = 0.75

// unplaced is the bucket tag of an entry that has been allocated but not yet
// linked into a bucket. It never matches a bucket index.
const unplaced = -1

// Entry holds a key and value.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
	// hash is the full hash of Key, kept so that rehashing does not need to
	// call the hash function.
	hash uintptr
	// bucket is the bucket the entry is linked into, or unplaced.
	bucket int
}

// Map is an unordered map from keys to values. By default, a Map[K,V] uses
// xxhash for string keys and the builtin map's hash for all other keys,
// though a different hash function can be specified using the WithHash
// option.
//
// A Map is NOT goroutine-safe.
type Map[K comparable, V any] struct {
	// The hash function to each keys of type K.
	hash hashFn
	seed uintptr
	// The key equality predicate.
	equal func(a, b K) bool
	// The load factor above which the bucket index grows.
	maxLoadFactor float64
	logger        *zap.Logger
	// The allocator for entries and the policy for adopting another map's
	// allocator on assignment. These are mirrored by entries.
	allocator list.Allocator[Entry[K, V]]
	policy    list.Propagation
	// initialBuckets is only consulted by New.
	initialBuckets int
	// buckets holds the anchor of every bucket, or entries.End() for buckets
	// without entries. Its length is the bucket count and is always >= 1.
	buckets []list.Iterator[Entry[K, V]]
	// entries is the one list holding every entry of the map.
	entries *list.List[Entry[K, V]]
}

// New constructs a new Map with a single bucket, or the number of buckets
// given by WithInitialBuckets.
func New[K comparable, V any](options ...option[K, V]) *Map[K, V] {
	m := &Map[K, V]{
		hash:           defaultHash[K](),
		seed:           uintptr(rand.Uint64()),
		equal:          func(a, b K) bool { return a == b },
		maxLoadFactor:  defaultMaxLoadFactor,
		logger:         zap.NewNop(),
		policy:         list.PropagateOnMove,
		initialBuckets: 1,
	}

	for _, op := range options {
		op.apply(m)
	}

	if !(m.maxLoadFactor > 0) {
		panic(errors.Wrapf(ErrInvalidLoadFactor, "%v", m.maxLoadFactor))
	}
	m.entries = m.newEntries(m.allocator, m.policy)
	m.allocator = m.entries.Allocator()
	m.resetBuckets(max(m.initialBuckets, 1))
	m.checkInvariants()
	return m
}

func (m *Map[K, V]) newEntries(
	alloc list.Allocator[Entry[K, V]], policy list.Propagation,
) *list.List[Entry[K, V]] {
	options := []list.Option[Entry[K, V]]{list.WithPropagation[Entry[K, V]](policy)}
	if alloc != nil {
		options = append(options, list.WithAllocator(alloc))
	}
	return list.New(options...)
}

// resetBuckets sizes the bucket index to n buckets, none of which has an
// anchor.
func (m *Map[K, V]) resetBuckets(n int) {
	m.buckets = m.makeBuckets(n)
	end := m.entries.End()
	for i := range m.buckets {
		m.buckets[i] = end
	}
}

// makeBuckets returns a bucket index of n buckets, reusing the current one
// when it is large enough. The contents are unspecified.
func (m *Map[K, V]) makeBuckets(n int) []list.Iterator[Entry[K, V]] {
	if cap(m.buckets) >= n {
		return m.buckets[:n]
	}
	return make([]list.Iterator[Entry[K, V]], n)
}

// Close closes the map, releasing every entry back to its configured
// allocator. It is unnecessary to close a map using the default allocator.
// It is invalid to use a Map after it has been closed, though Close itself is
// idempotent.
func (m *Map[K, V]) Close() {
	m.entries.Close()
	m.buckets = nil
}

// Clear removes every entry from the map, releasing them to the allocator.
// The bucket count is retained.
func (m *Map[K, V]) Clear() {
	m.entries.Clear()
	m.resetBuckets(len(m.buckets))
	m.checkInvariants()
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.entries.Len()
}

// Empty returns true if the map has no entries.
func (m *Map[K, V]) Empty() bool {
	return m.entries.Len() == 0
}

// BucketCount returns the number of buckets.
func (m *Map[K, V]) BucketCount() int {
	return len(m.buckets)
}

// LoadFactor returns the average number of entries per bucket.
func (m *Map[K, V]) LoadFactor() float64 {
	return float64(m.entries.Len()) / float64(len(m.buckets))
}

// MaxLoadFactor returns the load factor above which the map grows.
func (m *Map[K, V]) MaxLoadFactor() float64 {
	return m.maxLoadFactor
}

// SetMaxLoadFactor sets the load factor above which the map grows. The map
// is not rehashed immediately; the next insertion grows it as needed.
func (m *Map[K, V]) SetMaxLoadFactor(f float64) error {
	if !(f > 0) {
		return errors.Wrapf(ErrInvalidLoadFactor, "%v", f)
	}
	m.maxLoadFactor = f
	return nil
}

// Begin returns the position of the first entry in iteration order, or End()
// if the map is empty.
func (m *Map[K, V]) Begin() Iterator[K, V] {
	return Iterator[K, V]{it: m.entries.Begin()}
}

// End returns the position one past the last entry.
func (m *Map[K, V]) End() Iterator[K, V] {
	return Iterator[K, V]{it: m.entries.End()}
}

// CBegin is the read-only form of Begin.
func (m *Map[K, V]) CBegin() ConstIterator[K, V] {
	return ConstIterator[K, V]{it: m.entries.CBegin()}
}

// CEnd is the read-only form of End.
func (m *Map[K, V]) CEnd() ConstIterator[K, V] {
	return ConstIterator[K, V]{it: m.entries.CEnd()}
}

// All calls yield sequentially for each key and value present in the map.
// The iteration order is the bucket chain order: the entries of a bucket are
// visited together. Mutating the map during iteration is not supported.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for it, end := m.entries.Begin(), m.entries.End(); it != end; it = it.Next() {
			e := it.Ptr()
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Backward is All in reverse order.
func (m *Map[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for it, end := m.entries.End().Prev(), m.entries.End(); it != end; it = it.Prev() {
			e := it.Ptr()
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Find returns the position of the entry for key, or End() if the key is not
// present.
func (m *Map[K, V]) Find(key K) Iterator[K, V] {
	h := m.hash(noescape(unsafe.Pointer(&key)), m.seed)
	return Iterator[K, V]{it: m.find(h, key)}
}

// Get retrieves the value from the map for the specified key, return ok=false
// if the key is not present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	h := m.hash(noescape(unsafe.Pointer(&key)), m.seed)
	it := m.find(h, key)
	if it == m.entries.End() {
		return value, false
	}
	return it.Ptr().Value, true
}

// Contains returns true if the key is present.
func (m *Map[K, V]) Contains(key K) bool {
	return m.Find(key) != m.End()
}

// At returns a pointer to the value for key. Unlike Index, At never inserts:
// if the key is not present it returns an error satisfying
// errors.Is(err, ErrNotFound).
func (m *Map[K, V]) At(key K) (*V, error) {
	h := m.hash(noescape(unsafe.Pointer(&key)), m.seed)
	it := m.find(h, key)
	if it == m.entries.End() {
		return nil, errors.Wrapf(ErrNotFound, "%v", key)
	}
	return &it.Ptr().Value, nil
}

// Index returns a pointer to the value for key, first inserting the zero
// value for key if it is not present.
func (m *Map[K, V]) Index(key K) *V {
	h := m.hash(noescape(unsafe.Pointer(&key)), m.seed)
	it := m.find(h, key)
	if it == m.entries.End() {
		var zero V
		it = m.insert(h, key, zero)
	}
	return &it.Ptr().Value
}

// Insert inserts an entry into the map unless an entry with an equal key is
// already present. It returns the position of the entry for key and whether
// it was inserted. An existing value is never overwritten.
func (m *Map[K, V]) Insert(key K, value V) (Iterator[K, V], bool) {
	h := m.hash(noescape(unsafe.Pointer(&key)), m.seed)
	if it := m.find(h, key); it != m.entries.End() {
		return Iterator[K, V]{it: it}, false
	}
	return Iterator[K, V]{it: m.insert(h, key, value)}, true
}

// Emplace constructs an entry with ctor and inserts it unless an entry with
// an equal key is already present, in which case the constructed entry is
// released. It returns the position of the entry for the key and whether it
// was inserted.
func (m *Map[K, V]) Emplace(ctor func() (K, V)) (Iterator[K, V], bool) {
	key, value := ctor()
	it := m.entries.PushBack(Entry[K, V]{Key: key, Value: value, bucket: unplaced})
	e := it.Ptr()
	e.hash = m.hash(noescape(unsafe.Pointer(&e.Key)), m.seed)
	if existing := m.find(e.hash, e.Key); existing != m.entries.End() {
		m.entries.Erase(it)
		return Iterator[K, V]{it: existing}, false
	}
	m.place(it)
	m.checkInvariants()
	return Iterator[K, V]{it: it}, true
}

// InsertAll inserts every key and value of seq that is not already present.
func (m *Map[K, V]) InsertAll(seq iter.Seq2[K, V]) {
	for k, v := range seq {
		m.Insert(k, v)
	}
}

// Erase removes the entry at pos and returns the position that followed it.
// Erasing End() is a noop that returns End(). pos must be a position of m.
func (m *Map[K, V]) Erase(pos Iterator[K, V]) Iterator[K, V] {
	it := pos.it
	end := m.entries.End()
	if it == end {
		return pos
	}
	b := it.Ptr().bucket
	anchor := m.buckets[b] == it
	next := m.entries.Erase(it)
	if anchor {
		// The run of b starts at next if next still belongs to b. Otherwise
		// the erased entry was the last of its run.
		if next != end && next.Ptr().bucket == b {
			m.buckets[b] = next
		} else {
			m.buckets[b] = end
		}
	}
	m.checkInvariants()
	return Iterator[K, V]{it: next}
}

// EraseKey removes the entry for key, returning the number of entries
// removed (0 or 1).
func (m *Map[K, V]) EraseKey(key K) int {
	it := m.Find(key)
	if it == m.End() {
		return 0
	}
	m.Erase(it)
	return 1
}

// EraseRange removes every entry in [first, last) and returns last.
func (m *Map[K, V]) EraseRange(first, last Iterator[K, V]) Iterator[K, V] {
	for it := first; it != last; {
		it = m.Erase(it)
	}
	return last
}

// Reserve ensures that the map can hold n entries without growing. It
// rehashes if n exceeds the current bucket count, and never shrinks the
// bucket index. Reserve panics with ErrTooManyBuckets if the required bucket
// count does not fit in an int; the map is unchanged in that case.
func (m *Map[K, V]) Reserve(n int) {
	if n > len(m.buckets) {
		if b := m.bucketsFor(n); b > len(m.buckets) {
			m.Rehash(b)
		}
	}
}

// bucketsFor returns the number of buckets that holds n entries without
// exceeding the max load factor. It panics with ErrTooManyBuckets if that
// number does not fit in an int, like make does for an oversized slice.
func (m *Map[K, V]) bucketsFor(n int) int {
	f := float64(n)/m.maxLoadFactor + 1
	if !(f < float64(math.MaxInt)) {
		panic(errors.Wrapf(ErrTooManyBuckets, "%d entries at max load factor %v", n, m.maxLoadFactor))
	}
	return int(f)
}

// Rehash rebuilds the bucket index with n buckets (at least 1). Entries are
// relinked rather than copied, so every iterator remains valid.
func (m *Map[K, V]) Rehash(n int) {
	n = max(n, 1)
	if m.logger.Core().Enabled(zap.DebugLevel) {
		m.logger.Debug("rehash",
			zap.Int("len", m.entries.Len()),
			zap.Int("from", len(m.buckets)),
			zap.Int("to", n))
	}

	// The index is allocated before the entries are detached so that a failed
	// allocation leaves the map intact.
	m.buckets = m.makeBuckets(n)
	old := m.entries.Move()
	m.resetBuckets(n)
	for it, end := old.Begin(), old.End(); it != end; {
		next := it.Next()
		m.link(old, it)
		it = next
	}
	old.Close()
	m.checkInvariants()
}

// Clone returns a copy of m. The copy has the same hash function, seed,
// equality predicate, max load factor and logger. Its entries are allocated
// from the allocator selected by list.SelectOnCopy and are inserted in m's
// iteration order into a map starting with a single bucket.
func (m *Map[K, V]) Clone() *Map[K, V] {
	return m.cloneWith(list.SelectOnCopy(m.allocator), m.policy)
}

func (m *Map[K, V]) cloneWith(
	alloc list.Allocator[Entry[K, V]], policy list.Propagation,
) *Map[K, V] {
	c := &Map[K, V]{
		hash:           m.hash,
		seed:           m.seed,
		equal:          m.equal,
		maxLoadFactor:  m.maxLoadFactor,
		logger:         m.logger,
		allocator:      alloc,
		policy:         policy,
		initialBuckets: 1,
	}
	c.entries = c.newEntries(alloc, policy)
	c.resetBuckets(1)
	for it, end := m.entries.Begin(), m.entries.End(); it != end; it = it.Next() {
		e := it.Ptr()
		c.insert(e.hash, e.Key, e.Value)
	}
	return c
}

// Move transfers the contents of m to a new map in O(1) and returns it. m is
// left empty with a single bucket and remains usable.
func (m *Map[K, V]) Move() *Map[K, V] {
	n := *m
	n.entries = m.entries.Move()
	m.buckets = nil
	m.resetBuckets(1)
	return &n
}

// CopyFrom replaces the contents of m with a copy of src, adopting src's
// hash function, seed, equality predicate, max load factor and logger. The
// copy is built before m is modified. If m's propagation policy includes
// list.PropagateOnCopy, m adopts src's allocator; otherwise the copy is
// allocated from m's allocator. m's previous entries are released to the
// allocator they were obtained from.
func (m *Map[K, V]) CopyFrom(src *Map[K, V]) {
	if m == src {
		return
	}
	alloc := m.allocator
	if m.policy&list.PropagateOnCopy != 0 {
		alloc = src.allocator
	}
	tmp := src.cloneWith(alloc, m.policy)
	m.entries.Close()
	*m = *tmp
	m.checkInvariants()
}

// MoveFrom replaces the contents of m with the contents of src, leaving src
// empty with a single bucket. m's previous entries are released first. If
// m's propagation policy includes list.PropagateOnMove, the entries are
// transferred in O(1) along with src's allocator and iterators into src
// become iterators into m. Otherwise each entry is moved into a node
// obtained from m's allocator.
func (m *Map[K, V]) MoveFrom(src *Map[K, V]) {
	if m == src {
		return
	}
	m.entries.Clear()
	m.entries.MoveFrom(src.entries)
	m.hash = src.hash
	m.seed = src.seed
	m.equal = src.equal
	m.maxLoadFactor = src.maxLoadFactor
	m.logger = src.logger
	if m.policy&list.PropagateOnMove != 0 {
		m.allocator = src.allocator
		m.buckets = src.buckets
		src.buckets = nil
	} else {
		m.Rehash(len(src.buckets))
	}
	src.resetBuckets(1)
	m.checkInvariants()
	src.checkInvariants()
}

// find returns the position of the entry for key, whose hash is h, or
// entries.End().
func (m *Map[K, V]) find(h uintptr, key K) list.Iterator[Entry[K, V]] {
	b := int(h % uintptr(len(m.buckets)))
	end := m.entries.End()
	// The walk stops at the first entry of a different bucket. That entry is
	// the start of another bucket's run, so no further entry of b follows.
	for it := m.buckets[b]; it != end; it = it.Next() {
		e := it.Ptr()
		if e.bucket != b {
			break
		}
		if e.hash == h && m.equal(e.Key, key) {
			return it
		}
	}
	return end
}

// insert inserts an entry known not to be in the map.
func (m *Map[K, V]) insert(h uintptr, key K, value V) list.Iterator[Entry[K, V]] {
	it := m.entries.PushBack(Entry[K, V]{Key: key, Value: value, hash: h, bucket: unplaced})
	m.place(it)
	m.checkInvariants()
	return it
}

// place links the unplaced entry at it, which has just been pushed on to the
// tail of the entries list, into its bucket. The node is allocated before
// the bucket index grows so that a failed allocation leaves the map as it
// was.
func (m *Map[K, V]) place(it list.Iterator[Entry[K, V]]) {
	grown := false
	for float64(m.entries.Len())/float64(len(m.buckets)) > m.maxLoadFactor {
		m.grow()
		grown = true
	}
	if grown {
		// Rehash linked every entry of the list, including this one.
		return
	}
	m.link(m.entries, it)
}

// grow reserves room for 2*buckets+1 entries. The resulting bucket count is
// at least 2*buckets+1 even when the max load factor exceeds 1.
func (m *Map[K, V]) grow() {
	n := 2*len(m.buckets) + 1
	m.Rehash(max(n, m.bucketsFor(n)))
}

// link moves the entry at it out of src and into its bucket's run in
// m.entries, updating the entry's bucket tag and the bucket's anchor.
func (m *Map[K, V]) link(src *list.List[Entry[K, V]], it list.Iterator[Entry[K, V]]) {
	e := it.Ptr()
	b := int(e.hash % uintptr(len(m.buckets)))
	e.bucket = b
	if anchor := m.buckets[b]; anchor != m.entries.End() {
		m.entries.Splice(anchor, src, it)
	} else {
		m.entries.Splice(m.entries.End(), src, it)
	}
	m.buckets[b] = it
}

func (m *Map[K, V]) checkInvariants() {
	if invariants {
		if err := m.validate(); err != nil {
			panic(err)
		}
	}
}

// validate verifies the coalesced chaining layout: every entry is tagged
// with the bucket its hash maps to, the entries of each bucket form exactly
// one contiguous run, and each bucket's anchor is the start of its run, or
// End() if the bucket is empty.
func (m *Map[K, V]) validate() error {
	if len(m.buckets) < 1 {
		return errors.AssertionFailedf("no buckets")
	}
	end := m.entries.End()
	runs := make(map[int]list.Iterator[Entry[K, V]])
	prev := unplaced
	n := 0
	for it := m.entries.Begin(); it != end; it = it.Next() {
		n++
		if n > m.entries.Len() {
			return errors.AssertionFailedf("list is longer than its length %d", m.entries.Len())
		}
		e := it.Ptr()
		if h := m.hash(noescape(unsafe.Pointer(&e.Key)), m.seed); h != e.hash {
			return errors.AssertionFailedf("entry %v: stored hash %x != %x", e.Key, e.hash, h)
		}
		if b := int(e.hash % uintptr(len(m.buckets))); b != e.bucket {
			return errors.AssertionFailedf("entry %v: bucket tag %d != %d", e.Key, e.bucket, b)
		}
		if e.bucket != prev {
			if _, ok := runs[e.bucket]; ok {
				return errors.AssertionFailedf("entry %v: bucket %d has more than one run", e.Key, e.bucket)
			}
			runs[e.bucket] = it
			prev = e.bucket
		}
	}
	if n != m.entries.Len() {
		return errors.AssertionFailedf("found %d entries, but length is %d", n, m.entries.Len())
	}
	for b, anchor := range m.buckets {
		start, ok := runs[b]
		if !ok {
			start = end
		}
		if anchor != start {
			return errors.AssertionFailedf("bucket %d: anchor is not the start of its run", b)
		}
	}
	return nil
}
