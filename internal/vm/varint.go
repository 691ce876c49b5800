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

package vm

import "github.com/wirefast/fastpb/internal/xunsafe"

// Varint reads a varint of up to 10 bytes from s.Ptr, advancing the cursor
// past it.
//
// Uses the "bias trick": seed the value with the first byte, and for each
// continuation byte b_i add (b_i - 1) << (7 + 7*i). This avoids having to
// mask off the continuation bit on every byte, at the cost of biasing each
// term by one, which the "- 1" corrects for.
func (s *State) Varint() uint64 {
	if s.Len() < 1 {
		s.Fail(ErrMalformedVarint)
	}

	p := s.Ptr
	val := uint64(*p.Ptr())
	if val&0x80 == 0 {
		s.Ptr = p.ByteAdd(1)
		return val
	}

	return s.varintSlow(p, val)
}

// varintSlow handles varints of 2 bytes or more; split out so the common
// 1-byte case in [State.Varint] stays small enough to inline.
func (s *State) varintSlow(start xunsafe.Addr[byte], seed uint64) uint64 {
	val := seed
	p := start.ByteAdd(1)
	for i := 0; i < 8; i++ {
		if s.remaining(p) < 1 {
			s.Fail(ErrMalformedVarint)
		}
		b := uint64(*p.Ptr())
		val += (b - 1) << (7 + 7*uint(i))
		p = p.ByteAdd(1)
		if b&0x80 == 0 {
			s.Ptr = p
			return val
		}
	}

	// Tenth byte: at most one more bit of real payload fits in 64 bits.
	if s.remaining(p) < 1 {
		s.Fail(ErrMalformedVarint)
	}
	b := uint64(*p.Ptr())
	if b > 1 {
		s.Fail(ErrMalformedVarint)
	}
	val += (b - 1) << 63
	s.Ptr = p.ByteAdd(1)
	return val
}

// remaining reports how many bytes are available at and past p within the
// current buffer segment.
func (s *State) remaining(p xunsafe.Addr[byte]) int {
	return s.End.ByteSub(p)
}

// Size reads a length prefix and validates it against the 2 GiB ceiling.
//
// The fast path reads one byte; if its high bit is set, a bounded
// continuation of at most four more bytes follows, producing at most a
// 31-bit size. A fifth continuation byte with value >= 8 means the
// varint-encoded size is >= 2^31, which is rejected even though a general
// varint can encode up to 32 bits.
func (s *State) Size() int {
	if s.Len() < 1 {
		s.Fail(ErrMalformedVarint)
	}

	p := s.Ptr
	b0 := int(*p.Ptr())
	p = p.ByteAdd(1)
	if b0&0x80 == 0 {
		s.Ptr = p
		return b0
	}

	size := b0 & 0xff
	for i := 0; i < 3; i++ {
		if s.remaining(p) < 1 {
			s.Fail(ErrMalformedVarint)
		}
		b := int(*p.Ptr())
		p = p.ByteAdd(1)
		size += (b - 1) << (7 + 7*i)
		if b&0x80 == 0 {
			s.Ptr = p
			return size
		}
	}

	if s.remaining(p) < 1 {
		s.Fail(ErrMalformedVarint)
	}
	b := int(*p.Ptr())
	p = p.ByteAdd(1)
	if b >= 8 {
		s.Fail(ErrSizeOverflow)
	}
	size += (b - 1) << 28
	s.Ptr = p
	return size
}

// LengthPrefix reads a size (via [State.Size]) and validates it against the
// current limit in one step, as every delimited specialist needs.
func (s *State) LengthPrefix() int {
	n := s.Size()
	avail := s.LimitPtr.ByteSub(s.Ptr)
	if n < 0 || n > avail {
		s.Fail(ErrBufferUnderrun)
	}
	return n
}
