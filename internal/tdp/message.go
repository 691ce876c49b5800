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
	"unsafe"

	"github.com/wirefast/fastpb/internal/arena"
	"github.com/wirefast/fastpb/internal/xunsafe"
)

// HeaderSize is the size, in bytes, of the internal header the arena
// allocator prepends to every message record.
//
// The header holds only the 32-bit hasbits word, padded out to pointer
// alignment.
const HeaderSize = 8

// NewMessage allocates a zeroed record for t, sized exactly (t.Size +
// HeaderSize), and returns the address just past the header -- the
// "message pointer" every other function in this package and in
// internal/vm operates on.
func NewMessage(a *arena.Arena, t *Table) xunsafe.Addr[byte] {
	addr := a.Alloc(HeaderSize + int(t.Size))
	return addr.ByteAdd(HeaderSize)
}

// NewMessageCeil is like NewMessage, but when ceil > 0 and the arena has at
// least that many bytes available, it bump-allocates exactly ceil bytes
// inline, skipping the general allocator's size computation.
func NewMessageCeil(a *arena.Arena, t *Table, ceil int) xunsafe.Addr[byte] {
	size := HeaderSize + int(t.Size)
	if ceil > 0 && a.Avail() >= ceil {
		p := a.Head()
		clear(unsafe.Slice(p.Ptr(), size))
		a.Bump(ceil)
		return p.ByteAdd(HeaderSize)
	}
	return NewMessage(a, t)
}

// header returns the address of m's hasbits word.
func header(m xunsafe.Addr[byte]) xunsafe.Addr[uint32] {
	return xunsafe.Addr[uint32](m.ByteAdd(-HeaderSize))
}

// MergeHasbits ORs bits into m's hasbits word.
func MergeHasbits(m xunsafe.Addr[byte], bits uint32) {
	p := header(m).Ptr()
	*p |= bits
}

// HasBit reports whether the given hasbit is set on m.
func HasBit(m xunsafe.Addr[byte], idx uint8) bool {
	return *header(m).Ptr()&(1<<idx) != 0
}

// FieldAddr returns the address of the field storage at the given byte
// offset within m.
func FieldAddr(m xunsafe.Addr[byte], offset uint32) xunsafe.Addr[byte] {
	return m.ByteAdd(int(offset))
}
