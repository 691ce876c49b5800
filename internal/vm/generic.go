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
	"unicode/utf8"
	"unsafe"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/wirefast/fastpb/internal/tdp"
	"github.com/wirefast/fastpb/internal/xunsafe"
	"github.com/wirefast/fastpb/internal/zc"
)

// runGeneric handles everything the fast table doesn't specialize: unknown
// fields, groups, and maps. It is invoked once per field the fast-table
// lookup couldn't resolve, and consumes exactly that one field before
// returning control to [State.RunMessage]'s trampoline.
//
// The fast-table lookup keys fields by (tag_byte0 >> 3) & 0x1f, which
// collapses distinct field numbers onto the same slot; a slot populated for
// one field can therefore spuriously match the tag of another. [State.RunMessage]
// doesn't distinguish "no such field" from "this field isn't fast-pathable" --
// both land here, and this decoder re-derives the real field number from
// the tag itself, via protowire, rather than trusting the fast table's Data
// word (which may belong to a different field than the one on the wire).
func (s *State) runGeneric(m fieldAddr, t *tdp.Table, hasbits *uint32) {
	buf := unsafe.Slice(s.Ptr.Ptr(), s.Len())
	num, wt, n := protowire.ConsumeTag(buf)
	if n <= 0 {
		s.Fail(ErrMalformedWire)
	}
	s.Ptr = s.Ptr.ByteAdd(n)

	if wt == protowire.EndGroupType {
		if s.EndGroup == 0 || s.EndGroup != num {
			s.Fail(ErrGroupMismatch)
		}
		s.groupEnded = true
		return
	}

	gf := t.Fields[uint32(num)]
	if gf == nil {
		s.skipUnknown(wt)
		return
	}

	s.decodeGenericField(m, gf, hasbits, wt)
}

// skipUnknown consumes one field's value of the given wire type without
// storing it.
func (s *State) skipUnknown(wt protowire.Type) {
	switch wt {
	case protowire.VarintType:
		s.Varint()
	case protowire.Fixed32Type:
		if s.remaining(s.Ptr) < 4 {
			s.Fail(ErrBufferUnderrun)
		}
		s.Ptr = s.Ptr.ByteAdd(4)
	case protowire.Fixed64Type:
		if s.remaining(s.Ptr) < 8 {
			s.Fail(ErrBufferUnderrun)
		}
		s.Ptr = s.Ptr.ByteAdd(8)
	case protowire.BytesType:
		n := s.LengthPrefix()
		s.Ptr = s.Ptr.ByteAdd(n)
	case protowire.StartGroupType:
		s.skipGroup()
	default:
		s.Fail(ErrMalformedWire)
	}
}

// skipGroup discards an entire unrecognized group, including any nested
// groups within it.
func (s *State) skipGroup() {
	for {
		if s.IsDone() {
			s.Fail(ErrBufferUnderrun)
		}
		buf := unsafe.Slice(s.Ptr.Ptr(), s.Len())
		num, wt, n := protowire.ConsumeTag(buf)
		if n <= 0 {
			s.Fail(ErrMalformedWire)
		}
		s.Ptr = s.Ptr.ByteAdd(n)
		if wt == protowire.EndGroupType {
			_ = num
			return
		}
		s.skipUnknown(wt)
	}
}

// decodeGenericField stores one occurrence of a recognized field using its
// [tdp.GenericField] description, covering every [tdp.GenericKind] the fast
// table doesn't specialize on its own (maps decode as repeated message
// entries with synthetic key/value fields, matching how protoc-generated
// descriptors already represent them, so no separate map kind is needed
// here).
func (s *State) decodeGenericField(m fieldAddr, gf *tdp.GenericField, hasbits *uint32, wt protowire.Type) {
	var farr repeatedArr
	data := gf.Data

	switch gf.Kind {
	case tdp.KindVarint, tdp.KindZigzag32, tdp.KindZigzag64:
		if wt == protowire.BytesType {
			s.decodePackedVarint(m, gf, hasbits)
			return
		}
		if wt != protowire.VarintType {
			s.Fail(ErrMalformedWire)
		}
		valBytes, zigzag := genericVarintShape(gf.Kind)
		dst := s.GetField(m, &data, hasbits, &farr, gf.Card, valBytes)
		if gf.Card == tdp.Repeated || gf.Card == tdp.Packed {
			dst = s.ResizeArray(dst, &farr, valBytes)
		}
		val := s.Varint()
		storeValue(dst, munge(val, valBytes, zigzag), valBytes)
		if gf.Card == tdp.Repeated || gf.Card == tdp.Packed {
			farr.arr.Ptr().CommitLen(dst.ByteAdd(valBytes))
		}

	case tdp.KindFixed32, tdp.KindFixed64:
		valBytes := 4
		if gf.Kind == tdp.KindFixed64 {
			valBytes = 8
		}
		if wt == protowire.BytesType {
			s.decodePackedFixed(m, gf, hasbits, valBytes)
			return
		}
		dst := s.GetField(m, &data, hasbits, &farr, gf.Card, valBytes)
		if gf.Card == tdp.Repeated || gf.Card == tdp.Packed {
			dst = s.ResizeArray(dst, &farr, valBytes)
		}
		if s.remaining(s.Ptr) < valBytes {
			s.Fail(ErrBufferUnderrun)
		}
		copyFixed(dst, s.Ptr, valBytes)
		s.Ptr = s.Ptr.ByteAdd(valBytes)
		if gf.Card == tdp.Repeated || gf.Card == tdp.Packed {
			farr.arr.Ptr().CommitLen(dst.ByteAdd(valBytes))
		}

	case tdp.KindBytes, tdp.KindString:
		if wt != protowire.BytesType {
			s.Fail(ErrMalformedWire)
		}
		dst := s.GetField(m, &data, hasbits, &farr, gf.Card, viewSize)
		if gf.Card == tdp.Repeated {
			dst = s.ResizeArray(dst, &farr, viewSize)
		}
		n := s.LengthPrefix()
		var view zc.View
		if s.Alias {
			view = zc.Alias(s.Ptr, n)
		} else {
			view = s.copyString(n)
		}
		if gf.Kind == tdp.KindString && !s.Options.AllowInvalidUTF8 && !utf8.Valid(view.Bytes()) {
			s.Fail(ErrInvalidUTF8)
		}
		s.Ptr = s.Ptr.ByteAdd(n)
		*xunsafe.Addr[zc.View](dst).Ptr() = view
		if gf.Card == tdp.Repeated {
			farr.arr.Ptr().CommitLen(dst.ByteAdd(viewSize))
		}

	case tdp.KindMessage:
		if wt != protowire.BytesType {
			s.Fail(ErrMalformedWire)
		}
		dst := s.GetField(m, &data, hasbits, &farr, gf.Card, ptrSize)
		if gf.Card == tdp.Repeated {
			dst = s.ResizeArray(dst, &farr, ptrSize)
		}
		n := s.LengthPrefix()
		if s.Depth <= 0 {
			s.Fail(ErrRecursionDepth)
		}
		child := tdp.NewMessage(s.Arena, gf.Submsg)
		*xunsafe.Addr[xunsafe.Addr[byte]](dst).Ptr() = child
		prevEndGroup := s.EndGroup
		s.EndGroup = 0
		delta := s.Push(n)
		s.Depth--
		s.RunMessage(child, gf.Submsg)
		s.Depth++
		s.Pop(delta)
		s.EndGroup = prevEndGroup
		if gf.Card == tdp.Repeated {
			farr.arr.Ptr().CommitLen(dst.ByteAdd(ptrSize))
		}

	case tdp.KindGroup:
		if wt != protowire.StartGroupType {
			s.Fail(ErrMalformedWire)
		}
		dst := s.GetField(m, &data, hasbits, &farr, gf.Card, ptrSize)
		if gf.Card == tdp.Repeated {
			dst = s.ResizeArray(dst, &farr, ptrSize)
		}
		if s.Depth <= 0 {
			s.Fail(ErrRecursionDepth)
		}
		child := tdp.NewMessage(s.Arena, gf.Submsg)
		*xunsafe.Addr[xunsafe.Addr[byte]](dst).Ptr() = child
		prevEndGroup := s.EndGroup
		s.EndGroup = protowire.Number(gf.Number)
		s.Depth--
		s.RunMessage(child, gf.Submsg)
		s.Depth++
		s.EndGroup = prevEndGroup
		if gf.Card == tdp.Repeated {
			farr.arr.Ptr().CommitLen(dst.ByteAdd(ptrSize))
		}

	default:
		s.Fail(ErrMalformedWire)
	}
}

// decodePackedVarint handles a varint-kind field whose wire type on the
// wire turned out to be LEN (packed encoding), something the generic
// decoder must expect even for fields the schema didn't mark Packed: a
// conforming parser accepts either encoding for any repeated scalar field.
func (s *State) decodePackedVarint(m fieldAddr, gf *tdp.GenericField, hasbits *uint32) {
	var farr repeatedArr
	data := gf.Data
	valBytes, zigzag := genericVarintShape(gf.Kind)
	dst := s.GetField(m, &data, hasbits, &farr, tdp.Packed, valBytes)

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
}

func (s *State) decodePackedFixed(m fieldAddr, gf *tdp.GenericField, hasbits *uint32, valBytes int) {
	var farr repeatedArr
	data := gf.Data
	dst := s.GetField(m, &data, hasbits, &farr, tdp.Packed, valBytes)

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
}

func genericVarintShape(kind tdp.GenericKind) (valBytes int, zigzag bool) {
	switch kind {
	case tdp.KindZigzag32:
		return 4, true
	case tdp.KindZigzag64:
		return 8, true
	default:
		return 8, false
	}
}
