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

// repeatedArr tracks the array a repeated-field specialist is writing into,
// so that the hot SAMEFIELD loop doesn't have to re-derive it from the
// message on every element.
type repeatedArr struct {
	arr xunsafe.Addr[tdp.Array]
	end xunsafe.Addr[byte]
}

// GetField resolves where a field's value should be written, per its
// cardinality:
//
//   - Singular: set the hasbit and return the field's fixed storage.
//   - Oneof: write the field number into the case slot and return storage.
//   - Repeated: commit any pending hasbits, allocate/fetch the backing
//     array, and return the first unused slot; the caller's data word is
//     also updated to the tag just loaded off the wire, so the SAMEFIELD
//     fast loop can compare against it directly.
func (s *State) GetField(m xunsafe.Addr[byte], data *tdp.Data, hasbits *uint32, farr *repeatedArr, card tdp.Card, valBytes int) xunsafe.Addr[byte] {
	switch card {
	case tdp.Singular:
		*hasbits |= 1 << data.HasbitIndex()
		return tdp.FieldAddr(m, data.ValueOffset())

	case tdp.Oneof:
		caseSlot := xunsafe.Addr[uint32](tdp.FieldAddr(m, data.OneofCaseOffset()))
		*caseSlot.Ptr() = uint32(data.FieldNumber())
		return tdp.FieldAddr(m, data.ValueOffset())

	case tdp.Repeated, tdp.Packed:
		tdp.MergeHasbits(m, *hasbits)
		*hasbits = 0

		slot := xunsafe.Addr[xunsafe.Addr[tdp.Array]](tdp.FieldAddr(m, data.ValueOffset()))
		if slot.Ptr().IsNil() {
			arr := tdp.NewArray(s.Arena, valBytes)
			*slot.Ptr() = arr
			farr.arr = arr
		} else {
			farr.arr = *slot.Ptr()
		}

		a := farr.arr.Ptr()
		farr.end = a.End()
		if card == tdp.Repeated {
			*data = data.WithTag(s.peekTag())
		}
		return a.Next()

	default:
		panic("fastpb: unreachable cardinality")
	}
}

// peekTag loads the next two tag bytes without consuming them (the high
// byte is junk for a 1-byte tag -- the caller already knows its own tag
// width and ignores it).
func (s *State) peekTag() tdp.Tag {
	if s.remaining(s.Ptr) >= 2 {
		return tdp.Tag(*xunsafe.Addr[uint16](s.Ptr).Ptr())
	}
	if s.remaining(s.Ptr) == 1 {
		return tdp.Tag(*s.Ptr.Ptr())
	}
	return 0
}

// nextStep is the outcome of [State.NextRepeated].
type nextStep uint8

const (
	atLimit nextStep = iota
	sameField
	otherField
)

// NextRepeated advances past the element just written and decides whether
// the hot per-element loop can continue.
func (s *State) NextRepeated(dst xunsafe.Addr[byte], farr *repeatedArr, data tdp.Data, tagBytes, valBytes int) (next xunsafe.Addr[byte], tag tdp.Tag, step nextStep) {
	dst = dst.ByteAdd(valBytes)

	if !s.IsDone() {
		tag = s.peekTag()
		if tagMatches(tag, data, tagBytes) {
			return dst, tag, sameField
		}
		farr.arr.Ptr().CommitLen(dst)
		return dst, tag, otherField
	}

	farr.arr.Ptr().CommitLen(dst)
	return dst, 0, atLimit
}

// ResizeArray grows farr's backing array if dst has reached its capacity,
// returning the (possibly relocated) write position.
func (s *State) ResizeArray(dst xunsafe.Addr[byte], farr *repeatedArr, valBytes int) xunsafe.Addr[byte] {
	if dst != farr.end {
		return dst
	}
	a := farr.arr.Ptr()
	off := dst.ByteSub(a.Data)
	a.Grow(s.Arena)
	farr.end = a.End()
	return a.Data.ByteAdd(off)
}

func tagMatches(tag tdp.Tag, data tdp.Data, tagBytes int) bool {
	if tagBytes == 1 {
		return uint8(tag) == uint8(data.Tag())
	}
	return tag == data.Tag()
}
