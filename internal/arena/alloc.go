// Copyright 2025 The fastpb Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package arena

import (
	"unsafe"

	"github.com/wirefast/fastpb/internal/xunsafe"
)

// New allocates a zeroed value of type T on the arena and returns its address.
func New[T any](a *Arena) xunsafe.Addr[T] {
	var zero T
	addr := a.Alloc(int(unsafe.Sizeof(zero)))
	return xunsafe.Addr[T](addr)
}

// NewBytes allocates n zeroed bytes and returns their address.
func NewBytes(a *Arena, n int) xunsafe.Addr[byte] {
	return a.Alloc(n)
}
