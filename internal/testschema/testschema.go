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

// Package testschema hand-builds a handful of [tdp.Table] layouts the way a
// schema compiler would, for use only by this repository's own tests: a
// compiler that turns a protobuf descriptor into a populated [tdp.Table] is
// out of scope for this module.
package testschema

import (
	"unsafe"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/wirefast/fastpb/internal/tdp"
	"github.com/wirefast/fastpb/internal/xunsafe"
	"github.com/wirefast/fastpb/internal/zc"
)

var (
	ptrSize  = int(unsafe.Sizeof(xunsafe.Addr[byte](0)))
	viewSize = int(unsafe.Sizeof(zc.View{}))
)

func align8(n int) uint32 {
	return uint32((n + 7) &^ 7)
}

// Offsets for [Scalars]: {int32 field 1, string field 2, repeated int32
// field 3 (unpacked), repeated fixed32 field 4 (packed)}.
const (
	ScalarsField1Offset = 0
)

var (
	scalarsField2Offset = align8(4)
	scalarsField3Offset = scalarsField2Offset + align8(viewSize)
	scalarsField4Offset = scalarsField3Offset + align8(ptrSize)
	scalarsSize         = scalarsField4Offset + align8(ptrSize)
)

// Field offsets exported for tests that need to read decoded values back
// out of a raw message record.
var (
	ScalarsField2Offset = scalarsField2Offset
	ScalarsField3Offset = scalarsField3Offset
	ScalarsField4Offset = scalarsField4Offset
)

// Scalars is a message type with one of each primitive field shape: a
// singular int32, a singular string, an unpacked repeated int32, and a
// packed repeated fixed32 -- covering four exercise cases for field-shape dispatch.
var Scalars = func() *tdp.Table {
	t := &tdp.Table{Size: scalarsSize, Name: "Scalars"}

	tag1 := tdp.EncodeTag(1, protowire.VarintType)
	t.Fast[tag1.FastIndex()] = tdp.FastEntry{
		Parse: tdp.Varint(tdp.Singular, tdp.Varint32, tag1.TagBytes()),
		Data:  tdp.NewData(tag1, 0, 0, 0, uint16(ScalarsField1Offset)),
	}

	tag2 := tdp.EncodeTag(2, protowire.BytesType)
	t.Fast[tag2.FastIndex()] = tdp.FastEntry{
		Parse: tdp.String(tdp.Singular, tag2.TagBytes(), true, false),
		Data:  tdp.NewData(tag2, 0, 1, 0, uint16(scalarsField2Offset)),
	}

	tag3 := tdp.EncodeTag(3, protowire.VarintType)
	t.Fast[tag3.FastIndex()] = tdp.FastEntry{
		Parse: tdp.Varint(tdp.Repeated, tdp.Varint32, tag3.TagBytes()),
		Data:  tdp.NewData(tag3, 0, 0, 0, uint16(scalarsField3Offset)),
	}

	tag4 := tdp.EncodeTag(4, protowire.BytesType)
	t.Fast[tag4.FastIndex()] = tdp.FastEntry{
		Parse: tdp.Fixed(tdp.Packed, tdp.Fixed32, tag4.TagBytes()),
		Data:  tdp.NewData(tag4, 0, 0, 0, uint16(scalarsField4Offset)),
	}

	t.Fields = map[uint32]*tdp.GenericField{
		1: {Number: 1, Card: tdp.Singular, Kind: tdp.KindVarint, Data: t.Fast[tag1.FastIndex()].Data},
		2: {Number: 2, Card: tdp.Singular, Kind: tdp.KindString, Data: t.Fast[tag2.FastIndex()].Data},
		3: {Number: 3, Card: tdp.Repeated, Kind: tdp.KindVarint, Data: t.Fast[tag3.FastIndex()].Data},
		4: {Number: 4, Card: tdp.Packed, Kind: tdp.KindFixed32, Data: t.Fast[tag4.FastIndex()].Data},
	}

	return t
}()

// RepeatedInt32Offset is field 1's storage offset in [RepeatedInt32].
const RepeatedInt32Offset = 0

// RepeatedInt32 is a message type with a single unpacked repeated int32
// field at field number 1 (tag 0x08).
var RepeatedInt32 = func() *tdp.Table {
	t := &tdp.Table{Size: align8(ptrSize), Name: "RepeatedInt32"}

	tag := tdp.EncodeTag(1, protowire.VarintType)
	t.Fast[tag.FastIndex()] = tdp.FastEntry{
		Parse: tdp.Varint(tdp.Repeated, tdp.Varint32, tag.TagBytes()),
		Data:  tdp.NewData(tag, 0, 0, 0, uint16(RepeatedInt32Offset)),
	}
	t.Fields = map[uint32]*tdp.GenericField{
		1: {Number: 1, Card: tdp.Repeated, Kind: tdp.KindVarint, Data: t.Fast[tag.FastIndex()].Data},
	}
	return t
}()

// LongStringOffset is field 1's storage offset in [LongString].
const LongStringOffset = 0

// LongString is a message type with a single singular string field at field
// number 1 (tag 0x0A), used with long strings. Strings of up to 128 bytes
// are copied through a copy bucket; only longer ones take the exact-size
// long-string copy path.
var LongString = func() *tdp.Table {
	t := &tdp.Table{Size: align8(viewSize), Name: "LongString"}

	tag := tdp.EncodeTag(1, protowire.BytesType)
	t.Fast[tag.FastIndex()] = tdp.FastEntry{
		Parse: tdp.String(tdp.Singular, tag.TagBytes(), true, false),
		Data:  tdp.NewData(tag, 0, 0, 0, uint16(LongStringOffset)),
	}
	t.Fields = map[uint32]*tdp.GenericField{
		1: {Number: 1, Card: tdp.Singular, Kind: tdp.KindString, Data: t.Fast[tag.FastIndex()].Data},
	}
	return t
}()

// NestedOffset is field 1's storage offset in [Nested].
const NestedOffset = 0

// Nested is a self-referential message type with a single singular
// sub-message field at field number 1 (tag 0x0A), whose sub-table is itself
// -- used to exercise recursion depth exhaustion.
var Nested = func() *tdp.Table {
	t := &tdp.Table{Size: align8(ptrSize), Name: "Nested", Submsgs: make([]*tdp.Table, 1)}
	t.Submsgs[0] = t

	tag := tdp.EncodeTag(1, protowire.BytesType)
	t.Fast[tag.FastIndex()] = tdp.FastEntry{
		Parse: tdp.Submsg(tdp.Singular, tag.TagBytes(), tdp.Ceil64),
		Data:  tdp.NewData(tag, 0, 0, 0, uint16(NestedOffset)),
	}
	t.Fields = map[uint32]*tdp.GenericField{
		1: {Number: 1, Card: tdp.Singular, Kind: tdp.KindMessage, Data: t.Fast[tag.FastIndex()].Data, Submsg: t},
	}
	return t
}()

// OneofCaseOffset is the byte offset of the case word shared by [Oneof]'s
// two arms.
const OneofCaseOffset = 0

var (
	oneofField1Offset = align8(4)
	oneofField2Offset = oneofField1Offset + align8(4)
	oneofSize         = oneofField2Offset + align8(viewSize)
)

// Field offsets exported for tests.
var (
	OneofField1Offset = oneofField1Offset
	OneofField2Offset = oneofField2Offset
)

// Oneof is a message type with two fields -- a singular int32 at field
// number 1 and a singular string at field number 2 -- that share one oneof
// case word at OneofCaseOffset. Each arm still gets its own value storage;
// only the case word distinguishes which arm a decode last set.
var Oneof = func() *tdp.Table {
	t := &tdp.Table{Size: oneofSize, Name: "Oneof"}

	tag1 := tdp.EncodeTag(1, protowire.VarintType)
	t.Fast[tag1.FastIndex()] = tdp.FastEntry{
		Parse: tdp.Varint(tdp.Oneof, tdp.Varint32, tag1.TagBytes()),
		Data:  tdp.NewData(tag1, 0, 1, uint16(OneofCaseOffset), uint16(oneofField1Offset)),
	}

	tag2 := tdp.EncodeTag(2, protowire.BytesType)
	t.Fast[tag2.FastIndex()] = tdp.FastEntry{
		Parse: tdp.String(tdp.Oneof, tag2.TagBytes(), true, false),
		Data:  tdp.NewData(tag2, 0, 2, uint16(OneofCaseOffset), uint16(oneofField2Offset)),
	}

	t.Fields = map[uint32]*tdp.GenericField{
		1: {Number: 1, Card: tdp.Oneof, Kind: tdp.KindVarint, Data: t.Fast[tag1.FastIndex()].Data},
		2: {Number: 2, Card: tdp.Oneof, Kind: tdp.KindString, Data: t.Fast[tag2.FastIndex()].Data},
	}
	return t
}()

// TwoByteTagOffset is field 16's storage offset in [TwoByteTag].
const TwoByteTagOffset = 0

// TwoByteTag is a message type with a single singular int32 field at field
// number 16, the lowest field number whose tag no longer fits in one byte
// (0x80 0x01) -- exercises the two-tag-byte half of the varint specialist
// row.
var TwoByteTag = func() *tdp.Table {
	t := &tdp.Table{Size: align8(4), Name: "TwoByteTag"}

	tag := tdp.EncodeTag(16, protowire.VarintType)
	t.Fast[tag.FastIndex()] = tdp.FastEntry{
		Parse: tdp.Varint(tdp.Singular, tdp.Varint32, tag.TagBytes()),
		Data:  tdp.NewData(tag, 0, 0, 0, uint16(TwoByteTagOffset)),
	}
	t.Fields = map[uint32]*tdp.GenericField{
		16: {Number: 16, Card: tdp.Singular, Kind: tdp.KindVarint, Data: t.Fast[tag.FastIndex()].Data},
	}
	return t
}()

// UTF8StringOffset is field 1's storage offset in [UTF8String].
const UTF8StringOffset = 0

// UTF8String is a message type with a single singular string field at field
// number 1 with UTF-8 validation turned on, unlike [Scalars] and
// [LongString], which both leave it off.
var UTF8String = func() *tdp.Table {
	t := &tdp.Table{Size: align8(viewSize), Name: "UTF8String"}

	tag := tdp.EncodeTag(1, protowire.BytesType)
	t.Fast[tag.FastIndex()] = tdp.FastEntry{
		Parse: tdp.String(tdp.Singular, tag.TagBytes(), true, true),
		Data:  tdp.NewData(tag, 0, 0, 0, uint16(UTF8StringOffset)),
	}
	t.Fields = map[uint32]*tdp.GenericField{
		1: {Number: 1, Card: tdp.Singular, Kind: tdp.KindString, Data: t.Fast[tag.FastIndex()].Data},
	}
	return t
}()

// GroupBodyField1Offset is field 1's storage offset inside [GroupBody].
const GroupBodyField1Offset = 0

// GroupBody is the message type backing [Group]'s single group field: one
// singular int32 at field number 1 (tag 0x08).
var GroupBody = func() *tdp.Table {
	t := &tdp.Table{Size: align8(4), Name: "GroupBody"}

	tag := tdp.EncodeTag(1, protowire.VarintType)
	t.Fast[tag.FastIndex()] = tdp.FastEntry{
		Parse: tdp.Varint(tdp.Singular, tdp.Varint32, tag.TagBytes()),
		Data:  tdp.NewData(tag, 0, 0, 0, uint16(GroupBodyField1Offset)),
	}
	t.Fields = map[uint32]*tdp.GenericField{
		1: {Number: 1, Card: tdp.Singular, Kind: tdp.KindVarint, Data: t.Fast[tag.FastIndex()].Data},
	}
	return t
}()

// GroupFieldOffset is the group field's storage offset in [Group].
const GroupFieldOffset = 0

// Group is a message type with a single group field at field number 1
// (START_GROUP tag 0x0B, matching END_GROUP tag 0x0C). The fast table never
// carries an entry for it: a START_GROUP tag's wire-type bits never match a
// fast-path row, so every group is routed through the generic decoder,
// keyed off Table.Fields instead.
var Group = func() *tdp.Table {
	t := &tdp.Table{Size: align8(ptrSize), Name: "Group"}

	t.Fields = map[uint32]*tdp.GenericField{
		1: {
			Number: 1,
			Card:   tdp.Singular,
			Kind:   tdp.KindGroup,
			Data:   tdp.NewData(0, 0, 0, 0, uint16(GroupFieldOffset)),
			Submsg: GroupBody,
		},
	}
	return t
}()
