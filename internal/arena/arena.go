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

// Package arena provides a bump allocator for decoded message data.
//
// A decode owns its arena exclusively; the arena is not safe for concurrent mutation. All message
// records, repeated-array backing stores, and copied (non-aliased) strings
// produced by a decode live in its arena and outlive the decode itself.
package arena

import (
	"unsafe"

	"github.com/wirefast/fastpb/internal/debug"
	"github.com/wirefast/fastpb/internal/xunsafe"
)

// Align is the alignment of every allocation made by an Arena.
const Align = int(unsafe.Sizeof(uintptr(0)))

// slack is the amount of padding reserved at the tail of every block, past
// the end that Avail reports; no allocation is ever placed in it.
const slack = 16

// Arena is a bump allocator.
//
// The zero Arena is empty and ready to use.
type Arena struct {
	next, end xunsafe.Addr[byte]
	cap       int // Size in bytes of the current block; always grows.

	blocks [][]byte // Retained so the GC doesn't reclaim live allocations.
}

// New creates an Arena with an initial block of the given size.
func New(initial int) *Arena {
	a := &Arena{}
	if initial > 0 {
		a.grow(initial)
	}
	return a
}

// Avail returns the number of bytes that can be bump-allocated from the
// current block without triggering a new allocation.
func (a *Arena) Avail() int {
	return a.end.ByteSub(a.next)
}

// Head returns the current bump pointer. Used by the string specialists'
// size-bucketed fast path, which writes directly at this address and then
// advances it by exactly the bucket size.
func (a *Arena) Head() xunsafe.Addr[byte] {
	return a.next
}

// Bump advances the arena's head pointer by n bytes without writing
// anything; the caller must already have checked Avail() >= n and written
// the bytes itself. Used by the size-bucketed string copy fast path.
func (a *Arena) Bump(n int) {
	debug.Assert(n <= a.Avail(), "arena: bump(%d) exceeds avail %d", n, a.Avail())
	a.next = a.next.ByteAdd(n)
}

// Alloc allocates size zeroed bytes, aligned to Align.
func (a *Arena) Alloc(size int) xunsafe.Addr[byte] {
	size = roundUp(size, Align)
	if a.Avail() < size {
		a.grow(size)
	}

	p := a.next
	a.next = a.next.ByteAdd(size)

	clear(unsafe.Slice(p.Ptr(), size))
	debug.Log("alloc", "%v:%v, %d bytes", p, a.next, size)
	return p
}

// Realloc grows (or shrinks) an allocation of oldSize bytes at p to
// newSize bytes, copying the overlapping prefix.
//
// If p is the arena's most recent allocation, this grows in place
// instead of copying.
func (a *Arena) Realloc(p xunsafe.Addr[byte], oldSize, newSize int) xunsafe.Addr[byte] {
	oldSize = roundUp(oldSize, Align)
	newSize = roundUp(newSize, Align)

	if a.next.ByteAdd(-oldSize) == p && p.ByteAdd(newSize) <= a.end {
		a.next = p.ByteAdd(newSize)
		if newSize > oldSize {
			clear(unsafe.Slice(p.ByteAdd(oldSize).Ptr(), newSize-oldSize))
		}
		return p
	}

	q := a.Alloc(newSize)
	copy(unsafe.Slice(q.Ptr(), newSize), unsafe.Slice(p.Ptr(), oldSize))
	return q
}

// grow allocates a fresh block of at least size bytes (plus slack) and
// makes it the current block.
func (a *Arena) grow(size int) {
	n := max(size+slack, a.cap*2, 4096)
	block := make([]byte, n)
	a.blocks = append(a.blocks, block)

	a.next = xunsafe.Of(&block[0])
	a.end = a.next.ByteAdd(len(block) - slack)
	a.cap = n

	debug.Log("grow", "%v:%v, %d bytes", a.next, a.end, n)
}

// Reset reclaims every allocation made from a, keeping only its largest
// block so that a pooled Arena (internal/sync2.Pool) amortizes the
// allocation cost of a fresh block across many decodes.
func (a *Arena) Reset() {
	if len(a.blocks) == 0 {
		return
	}

	biggest := 0
	for i, b := range a.blocks {
		if len(b) > len(a.blocks[biggest]) {
			biggest = i
		}
	}

	block := a.blocks[biggest]
	a.blocks = a.blocks[:1]
	a.blocks[0] = block
	a.next = xunsafe.Of(&block[0])
	a.end = a.next.ByteAdd(len(block) - slack)
	a.cap = len(block)
}

func roundUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
