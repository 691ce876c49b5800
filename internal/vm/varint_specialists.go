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
	"github.com/wirefast/fastpb/internal/tdp"
	"github.com/wirefast/fastpb/internal/xunsafe"
)

// varintValBytes returns the storage width for a [tdp.VarintKind].
func varintValBytes(kind tdp.VarintKind) int {
	switch kind {
	case tdp.Bool:
		return 1
	case tdp.Varint32, tdp.Zigzag32:
		return 4
	default:
		return 8
	}
}

func varintIsZigzag(kind tdp.VarintKind) bool {
	return kind == tdp.Zigzag32 || kind == tdp.Zigzag64
}

// munge applies the value transform: booleans collapse to 0/1,
// zigzag-encoded fields are un-zigzagged, everything else is truncated to
// its storage width.
func munge(val uint64, valBytes int, zigzag bool) uint64 {
	switch {
	case valBytes == 1:
		if val != 0 {
			return 1
		}
		return 0
	case zigzag && valBytes == 4:
		n := uint32(val)
		return uint64(int32(n>>1) ^ -int32(n&1))
	case zigzag:
		return uint64(int64(val>>1) ^ -int64(val&1))
	default:
		return val
	}
}

func storeValue(dst addrByte, val uint64, valBytes int) {
	switch valBytes {
	case 1:
		*dst.Ptr() = byte(val)
	case 4:
		*xunsafe.Addr[uint32](dst).Ptr() = uint32(val)
	default:
		*xunsafe.Addr[uint64](dst).Ptr() = val
	}
}

// runVarint handles varint decoding and its unpacked/packed sub-routines
// for one row of the {card x kind x tagBytes} matrix.
func (s *State) runVarint(rel tdp.Specialist, m fieldAddr, hasbits *uint32, data tdp.Data) bool {
	card := tdp.Card(rel / 10)
	kind := tdp.VarintKind(rel % 10 / 2)
	tagBytes := int(rel%10%2) + 1
	valBytes := varintValBytes(kind)
	zigzag := varintIsZigzag(kind)

	if card == tdp.Packed {
		return s.packedVarint(m, hasbits, data, tagBytes, valBytes, zigzag)
	}
	return s.unpackedVarint(m, hasbits, data, card, tagBytes, valBytes, zigzag)
}

func (s *State) unpackedVarint(m fieldAddr, hasbits *uint32, data tdp.Data, card tdp.Card, tagBytes, valBytes int, zigzag bool) bool {
	if !checkTag(data, tagBytes) {
		if card == tdp.Repeated {
			flipped := data.FlipPacked()
			if checkTag(flipped, tagBytes) {
				return s.packedVarint(m, hasbits, flipped, tagBytes, valBytes, zigzag)
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

		s.Ptr = s.Ptr.ByteAdd(tagBytes)
		val := s.Varint()
		storeValue(dst, munge(val, valBytes, zigzag), valBytes)

		if card != tdp.Repeated {
			return true
		}

		next, tag, step := s.NextRepeated(dst, &farr, data, tagBytes, valBytes)
		dst = next
		switch step {
		case sameField:
			continue
		case otherField:
			_ = tag
			return true
		default: // atLimit
			return true
		}
	}
}

func (s *State) packedVarint(m fieldAddr, hasbits *uint32, data tdp.Data, tagBytes, valBytes int, zigzag bool) bool {
	if !checkTag(data, tagBytes) {
		flipped := data.FlipPacked()
		if checkTag(flipped, tagBytes) {
			return s.unpackedVarint(m, hasbits, flipped, tdp.Repeated, tagBytes, valBytes, zigzag)
		}
		return false
	}

	var farr repeatedArr
	dst := s.GetField(m, &data, hasbits, &farr, tdp.Packed, valBytes)

	s.Ptr = s.Ptr.ByteAdd(tagBytes)
	n := s.LengthPrefix()
	delta := s.Push(n)

	for !s.IsDone() {
		dst = s.ResizeArray(dst, &farr, valBytes)
		val := s.Varint()
		storeValue(dst, munge(val, valBytes, zigzag), valBytes)
		dst = dst.ByteAdd(valBytes)
	}
	farr.arr.Ptr().CommitLen(dst)

	s.Pop(delta)
	return true
}

// checkTag reports whether the low tagBytes of data's xor-ed value are all
// zero, i.e. whether the expected tag matched.
func checkTag(data tdp.Data, tagBytes int) bool {
	if tagBytes == 1 {
		return data.CheckTag1()
	}
	return data.CheckTag2()
}
