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

import (
	"unsafe"

	"github.com/wirefast/fastpb/internal/tdp"
)

// runFixed handles the fixed32/fixed64 matrix: these fields are just a
// bounded memcpy, no munging needed.
func (s *State) runFixed(rel tdp.Specialist, m fieldAddr, hasbits *uint32, data tdp.Data) bool {
	card := tdp.Card(rel / 4)
	width := tdp.FixedWidth(rel % 4 / 2)
	tagBytes := int(rel%4%2) + 1
	valBytes := 4
	if width == tdp.Fixed64 {
		valBytes = 8
	}

	if card == tdp.Packed {
		return s.packedFixed(m, hasbits, data, tagBytes, valBytes)
	}
	return s.unpackedFixed(m, hasbits, data, card, tagBytes, valBytes)
}

func (s *State) unpackedFixed(m fieldAddr, hasbits *uint32, data tdp.Data, card tdp.Card, tagBytes, valBytes int) bool {
	if !checkTag(data, tagBytes) {
		if card == tdp.Repeated {
			flipped := data.FlipPacked()
			if checkTag(flipped, tagBytes) {
				return s.packedFixed(m, hasbits, flipped, tagBytes, valBytes)
			}
		}
		return false
	}

	var farr repeatedArr
	dst := s.GetField(m, &data, hasbits, &farr, card, valBytes)

	for {
		if card == tdp.Repeated {
			dst = s.ResizeArray(dst, &farr, valBytes)
		}

		src := s.Ptr.ByteAdd(tagBytes)
		if s.remaining(src) < valBytes {
			s.Fail(ErrBufferUnderrun)
		}
		copyFixed(dst, src, valBytes)
		s.Ptr = src.ByteAdd(valBytes)

		if card != tdp.Repeated {
			return true
		}

		next, tag, step := s.NextRepeated(dst, &farr, data, tagBytes, valBytes)
		dst = next
		switch step {
		case sameField:
			continue
		default:
			_ = tag
			return true
		}
	}
}

func (s *State) packedFixed(m fieldAddr, hasbits *uint32, data tdp.Data, tagBytes, valBytes int) bool {
	if !checkTag(data, tagBytes) {
		flipped := data.FlipPacked()
		if checkTag(flipped, tagBytes) {
			return s.unpackedFixed(m, hasbits, flipped, tdp.Repeated, tagBytes, valBytes)
		}
		return false
	}

	var farr repeatedArr
	dst := s.GetField(m, &data, hasbits, &farr, tdp.Packed, valBytes)

	s.Ptr = s.Ptr.ByteAdd(tagBytes)
	n := s.LengthPrefix()
	if n%valBytes != 0 {
		s.Fail(ErrMalformedWire)
	}
	delta := s.Push(n)

	for !s.IsDone() {
		dst = s.ResizeArray(dst, &farr, valBytes)
		if s.remaining(s.Ptr) < valBytes {
			s.Fail(ErrBufferUnderrun)
		}
		copyFixed(dst, s.Ptr, valBytes)
		s.Ptr = s.Ptr.ByteAdd(valBytes)
		dst = dst.ByteAdd(valBytes)
	}
	farr.arr.Ptr().CommitLen(dst)

	s.Pop(delta)
	return true
}

func copyFixed(dst, src addrByte, n int) {
	copy(unsafe.Slice(dst.Ptr(), n), unsafe.Slice(src.Ptr(), n))
}
