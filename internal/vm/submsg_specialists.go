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
	"github.com/wirefast/fastpb/internal/xunsafe"
)

// ptrSize is the element size a sub-message field occupies: a pointer to
// the nested record (xunsafe.Addr[byte], i.e. one uintptr).
var ptrSize = int(unsafe.Sizeof(xunsafe.Addr[byte](0)))

// ceilBytes maps a [tdp.SizeCeiling] to the inline-allocation size it asks
// [tdp.NewMessageCeil] to try first. CeilUnbounded (0) tells
// NewMessageCeil to skip the fast inline bump and size exactly to the
// sub-message's layout.
func ceilBytes(c tdp.SizeCeiling) int {
	switch c {
	case tdp.Ceil64:
		return 64
	case tdp.Ceil128:
		return 128
	case tdp.Ceil192:
		return 192
	case tdp.Ceil256:
		return 256
	default:
		return 0
	}
}

// runSubmsg handles the sub-message specialists: length-prefixed
// (LEN wire type) nested messages only. A START_GROUP tag never matches the
// expected tag pattern here (its low three bits differ from a
// length-delimited field's), so group-encoded fields always fall through
// to the generic decoder, which implements group parsing directly (see
// internal/vm/generic.go).
func (s *State) runSubmsg(rel tdp.Specialist, m fieldAddr, t *tdp.Table, hasbits *uint32, data tdp.Data) bool {
	card := tdp.Card(rel / 10)
	within := rel % 10
	ceil := tdp.SizeCeiling(within / 2)
	tagBytes := int(within%2) + 1

	if !checkTag(data, tagBytes) {
		return false
	}

	sub := t.Submsgs[data.SubmsgIndex()]
	inline := ceilBytes(ceil)

	var farr repeatedArr
	dst := s.GetField(m, &data, hasbits, &farr, card, ptrSize)

	for {
		if card == tdp.Repeated {
			dst = s.ResizeArray(dst, &farr, ptrSize)
		}

		s.Ptr = s.Ptr.ByteAdd(tagBytes)
		n := s.LengthPrefix()

		if s.Depth <= 0 {
			s.Fail(ErrRecursionDepth)
		}

		child := tdp.NewMessageCeil(s.Arena, sub, inline)
		*xunsafe.Addr[xunsafe.Addr[byte]](dst).Ptr() = child

		// A length-delimited sub-message never closes an enclosing group:
		// clearing EndGroup makes any END_GROUP tag inside it fail with
		// ErrGroupMismatch.
		prevEndGroup := s.EndGroup
		s.EndGroup = 0
		delta := s.Push(n)
		s.Depth--
		s.RunMessage(child, sub)
		s.Depth++
		s.Pop(delta)
		s.EndGroup = prevEndGroup

		if card != tdp.Repeated {
			return true
		}

		next, tag, step := s.NextRepeated(dst, &farr, data, tagBytes, ptrSize)
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
