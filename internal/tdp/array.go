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

package tdp

import (
	"github.com/wirefast/fastpb/internal/arena"
	"github.com/wirefast/fastpb/internal/xunsafe"
)

// InitialArrayCap is the capacity a freshly allocated repeated-field array
// starts with.
const InitialArrayCap = 8

// Array is the backing store for a repeated field.
//
// A message's repeated-field storage holds a pointer to one of these
// (xunsafe.Addr[Array], possibly nil before the field is first seen).
type Array struct {
	Data     xunsafe.Addr[byte]
	Len      uint32
	Cap      uint32
	ElemSize uint32
}

// NewArray allocates a fresh Array with InitialArrayCap elements of the
// given size.
func NewArray(a *arena.Arena, elemSize int) xunsafe.Addr[Array] {
	arr := arena.New[Array](a)
	p := arr.Ptr()
	p.Data = arena.NewBytes(a, InitialArrayCap*elemSize)
	p.Cap = InitialArrayCap
	p.ElemSize = uint32(elemSize)
	return arr
}

// End returns the address one past the last in-capacity element, i.e. the
// point at which Grow must be called before writing another element.
func (arr *Array) End() xunsafe.Addr[byte] {
	return arr.Data.ByteAdd(int(arr.Cap) * int(arr.ElemSize))
}

// Next returns the address of the first unused slot (at arr.Len).
func (arr *Array) Next() xunsafe.Addr[byte] {
	return arr.Data.ByteAdd(int(arr.Len) * int(arr.ElemSize))
}

// Grow doubles the array's capacity in the given arena.
func (arr *Array) Grow(a *arena.Arena) {
	oldBytes := int(arr.Cap) * int(arr.ElemSize)
	newCap := arr.Cap * 2
	newBytes := int(newCap) * int(arr.ElemSize)

	arr.Data = a.Realloc(arr.Data, oldBytes, newBytes)
	arr.Cap = newCap
}

// CommitLen recomputes arr.Len from a "current write position" pointer,
// i.e. how far into the array the fast-path loop got before falling out
// of the SAMEFIELD loop.
func (arr *Array) CommitLen(dst xunsafe.Addr[byte]) {
	arr.Len = uint32(dst.ByteSub(arr.Data)) / arr.ElemSize
}
