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

import "github.com/cockroachdb/errors"

var (
	// ErrNotFound is returned by At when the key is not present.
	ErrNotFound = errors.New("key not found")
	// ErrInvalidLoadFactor is returned when a non-positive maximum load factor
	// is requested.
	ErrInvalidLoadFactor = errors.New("invalid max load factor")
	// ErrTooManyBuckets is the panic value of Reserve and of growth when the
	// required bucket count does not fit in an int.
	ErrTooManyBuckets = errors.New("bucket count out of range")
)
